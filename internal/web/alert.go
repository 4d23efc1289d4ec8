package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noahxzhu/lighthouse/internal/alert"
	"github.com/noahxzhu/lighthouse/internal/mailer"
	"github.com/noahxzhu/lighthouse/internal/model"
)

func (s *Server) handleAlert(c *gin.Context) {
	var req model.AlertRequest
	dec := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondErrorDetail(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	recipients := req.Recipients()
	if len(recipients) == 0 {
		respondError(c, http.StatusBadRequest, "No email recipients")
		return
	}

	content, err := alert.Compose(&req, s.now())
	if err != nil {
		serverError(c, err)
		return
	}

	msg := mailer.Message{
		To:      recipients,
		From:    s.opts.From,
		Subject: s.opts.Subject,
		Text:    content.Text,
		HTML:    content.HTML,
	}
	if err := s.mail.Send(c.Request.Context(), msg); err != nil {
		s.metrics.alertResult("failed")
		s.logger.Error("alert mail failed",
			zap.Error(err),
			zap.Int("recipients", len(recipients)),
			zap.String("request_id", c.GetString(requestIDKey)))

		var apiErr *mailer.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusBadRequest {
			respondErrorDetail(c, apiErr.StatusCode, "Mail send failed", apiErr.Body)
			return
		}
		respondErrorDetail(c, http.StatusBadGateway, "Mail send failed", err.Error())
		return
	}

	s.metrics.alertResult("sent")
	s.logger.Info("alert mail sent",
		zap.String("reason", req.Reason),
		zap.Int("recipients", len(recipients)),
		zap.String("request_id", c.GetString(requestIDKey)))
	respondOK(c)
}
