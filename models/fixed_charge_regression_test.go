package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/models"
	"github.com/msahtani/storeyes-backend/utils"
	"github.com/shopspring/decimal"
)

func TestFixedChargePersonnelLifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "storeyes_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	store := models.Store{OwnerId: 1, Name: "Test Coffee"}
	if err := db.WithContext(ctx).Create(&store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetStoreIdInContext(ctx, store.ID)

	// 1) Monthly personnel charge: 500 spread over the five weeks of
	// March 2025, summing back exactly.
	charge, err := models.CreateFixedCharge(ctx, &models.NewFixedCharge{
		Category: models.ChargeCategoryPersonnel,
		Period:   models.ChargePeriodMonth,
		MonthKey: "2025-03",
		Employees: []*models.NewPersonnelEmployee{
			{
				Employee: models.NewEmployee{Name: "Sara", Type: models.EmployeeTypeServer},
				Salary:   decimal.NewFromInt(500),
			},
		},
	})
	if err != nil {
		t.Fatalf("CreateFixedCharge: %v", err)
	}
	if len(charge.Employees) != 1 {
		t.Fatalf("expected 1 line item; got %d", len(charge.Employees))
	}
	rows := charge.Employees[0].WeekSalaries
	if len(rows) != 5 {
		t.Fatalf("expected 5 week rows for 2025-03; got %d", len(rows))
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}
	if !total.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("week rows sum to %s, want 500", total.String())
	}
	if !charge.Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("derived charge amount = %s, want 500", charge.Amount.String())
	}

	// 2) Re-submitting the employee with a new salary replaces every week
	// row instead of patching in place.
	charge, err = models.UpdateFixedCharge(ctx, charge.ID, &models.UpdateFixedChargeInput{
		Employees: []*models.NewPersonnelEmployee{
			{
				Employee: models.NewEmployee{Name: "Sara", Type: models.EmployeeTypeServer},
				Salary:   decimal.NewFromInt(600),
			},
		},
	})
	if err != nil {
		t.Fatalf("UpdateFixedCharge(salary): %v", err)
	}
	rows = charge.Employees[0].WeekSalaries
	if len(rows) != 5 {
		t.Fatalf("expected 5 week rows after salary update; got %d", len(rows))
	}
	for _, row := range rows {
		if !row.Amount.Equal(decimal.NewFromInt(120)) {
			t.Fatalf("week row %s = %s, want 120", row.WeekKey, row.Amount.String())
		}
	}

	// 3) A period switch without an employees payload is rejected.
	weekPeriod := models.ChargePeriodWeek
	if _, err := models.UpdateFixedCharge(ctx, charge.ID, &models.UpdateFixedChargeInput{
		Period:  &weekPeriod,
		WeekKey: strp("2025-03-10"),
	}); err == nil || !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for period switch without employees; got %v", err)
	}

	// 4) Switching MONTH -> WEEK with a payload discards the monthly rows;
	// the amount is derived from the single week row.
	oldLineItemIds := make([]int, 0, len(charge.Employees))
	for _, emp := range charge.Employees {
		oldLineItemIds = append(oldLineItemIds, emp.ID)
	}
	charge, err = models.UpdateFixedCharge(ctx, charge.ID, &models.UpdateFixedChargeInput{
		Period:  &weekPeriod,
		WeekKey: strp("2025-03-10"),
		Employees: []*models.NewPersonnelEmployee{
			{
				Employee: models.NewEmployee{Name: "Sara", Type: models.EmployeeTypeServer},
				Salary:   decimal.NewFromInt(450),
			},
		},
	})
	if err != nil {
		t.Fatalf("UpdateFixedCharge(period switch): %v", err)
	}
	if charge.Period != models.ChargePeriodWeek {
		t.Fatalf("period = %s after switch", charge.Period)
	}
	if !charge.Amount.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("derived amount after switch = %s, want 450", charge.Amount.String())
	}
	rows = charge.Employees[0].WeekSalaries
	if len(rows) != 1 || rows[0].WeekKey != "2025-03-10" {
		t.Fatalf("expected single week row 2025-03-10 after switch; got %+v", rows)
	}
	var stale int64
	if err := db.WithContext(ctx).Model(&models.PersonnelWeekSalary{}).
		Where("personnel_employee_id IN ?", oldLineItemIds).
		Count(&stale).Error; err != nil {
		t.Fatalf("count stale week rows: %v", err)
	}
	if stale != 0 {
		t.Fatalf("expected 0 week rows for discarded line items; got %d", stale)
	}

	// 5) A utility cannot be edited onto a WEEK period, and its amount
	// cannot be edited to zero.
	water, err := models.CreateFixedCharge(ctx, &models.NewFixedCharge{
		Category: models.ChargeCategoryWater,
		Period:   models.ChargePeriodMonth,
		MonthKey: "2025-03",
		Amount:   decp("80"),
	})
	if err != nil {
		t.Fatalf("CreateFixedCharge(water): %v", err)
	}
	if _, err := models.UpdateFixedCharge(ctx, water.ID, &models.UpdateFixedChargeInput{
		Period:  &weekPeriod,
		WeekKey: strp("2025-03-10"),
	}); err == nil || !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for utility on WEEK period; got %v", err)
	}
	if _, err := models.UpdateFixedCharge(ctx, water.ID, &models.UpdateFixedChargeInput{
		Amount: decp("0"),
	}); err == nil || !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for zero amount; got %v", err)
	}

	// 6) Another store's charge reads as not found, never as forbidden.
	other := models.Store{OwnerId: 2, Name: "Other Coffee"}
	if err := db.WithContext(ctx).Create(&other).Error; err != nil {
		t.Fatalf("create other store: %v", err)
	}
	otherCtx := utils.SetUserIdInContext(context.Background(), 2)
	otherCtx = utils.SetStoreIdInContext(otherCtx, other.ID)
	if _, err := models.GetFixedCharge(otherCtx, charge.ID); err != utils.ErrorRecordNotFound {
		t.Fatalf("expected record not found across stores; got %v", err)
	}
	if _, err := models.UpdateFixedCharge(otherCtx, charge.ID, &models.UpdateFixedChargeInput{
		Notes: strp("hijack"),
	}); err != utils.ErrorRecordNotFound {
		t.Fatalf("expected record not found on cross-store update; got %v", err)
	}
}

func strp(s string) *string {
	return &s
}

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("storeyes-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("storeyes-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=storeyes_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
