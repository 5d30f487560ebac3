package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/models"
	"github.com/msahtani/storeyes-backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PubSubMessage is the push envelope; the byte slice field handles
// base64 decoding during unmarshalling.
type PubSubMessage struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

type revenueMessage struct {
	StoreId       int             `json:"store_id"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	CorrelationId string          `json:"correlation_id"`
}

// revenuePubSubHandler ingests daily revenue totals pushed by the POS
// pipeline. Malformed messages are acked and dropped so they are not
// redelivered forever; transient failures return 500 to trigger a retry.
func revenuePubSubHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "server", "revenuePubSubHandler", "read body", nil, err)
			c.Status(http.StatusNoContent)
			return
		}

		var msg PubSubMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			config.LogError(logger, "server", "revenuePubSubHandler", "unmarshal envelope", body, err)
			c.Status(http.StatusNoContent)
			return
		}

		var m revenueMessage
		if err := json.Unmarshal(msg.Message.Data, &m); err != nil {
			config.LogError(logger, "server", "revenuePubSubHandler", "unmarshal payload", msg.Message.Data, err)
			c.Status(http.StatusNoContent)
			return
		}

		if m.StoreId <= 0 || m.Date == "" {
			config.LogError(logger, "server", "revenuePubSubHandler", "missing required fields", m,
				errors.New("store_id and date are required"))
			c.Status(http.StatusNoContent)
			return
		}
		date, err := time.Parse(utils.DateLayout, m.Date)
		if err != nil {
			config.LogError(logger, "server", "revenuePubSubHandler", "invalid date", m.Date, err)
			c.Status(http.StatusNoContent)
			return
		}
		if m.Amount.IsNegative() {
			config.LogError(logger, "server", "revenuePubSubHandler", "negative amount", m,
				errors.New("amount must not be negative"))
			c.Status(http.StatusNoContent)
			return
		}

		correlationId := m.CorrelationId
		if correlationId == "" {
			correlationId = msg.Message.ID
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)

		// Best-effort lock per store; the upsert itself is a single
		// statement and safe without it.
		lock, err := utils.ResourceLock(ctx, "Revenue", m.StoreId, "server", "revenuePubSubHandler")
		if err != nil {
			logger.WithFields(logrus.Fields{
				"field":          "revenuePubSubHandler",
				"store_id":       m.StoreId,
				"message_id":     msg.Message.ID,
				"correlation_id": correlationId,
			}).Warn("proceeding without redis lock: " + err.Error())
		}
		if lock != nil {
			defer func() {
				if releaseErr := lock.Release(ctx); releaseErr != nil {
					logger.WithFields(logrus.Fields{
						"field":      "revenuePubSubHandler",
						"store_id":   m.StoreId,
						"message_id": msg.Message.ID,
					}).Warn("failed to release redis lock: " + releaseErr.Error())
				}
			}()
		}

		if _, err := models.UpsertDailyRevenue(ctx, m.StoreId, date, m.Amount); err != nil {
			logger.WithFields(logrus.Fields{
				"field":          "revenuePubSubHandler",
				"store_id":       m.StoreId,
				"date":           m.Date,
				"message_id":     msg.Message.ID,
				"correlation_id": correlationId,
			}).Error("revenue upsert failed: " + err.Error())
			c.Status(http.StatusInternalServerError)
			return
		}

		c.Status(http.StatusNoContent)
	}
}
