package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wms-platform/fulfillment-simulator/internal/application"
	"github.com/wms-platform/fulfillment-simulator/pkg/logging"
	"github.com/wms-platform/fulfillment-simulator/pkg/middleware"
)

type translationRow struct {
	Colour   string `json:"colour" binding:"required"`
	Model    string `json:"model" binding:"required"`
	FrontSKU string `json:"frontSku" binding:"required,sku"`
	RearSKU  string `json:"rearSku" binding:"required,sku"`
}

type traversalRow struct {
	Location string `json:"location" binding:"required"`
	SKU      string `json:"sku" binding:"required,sku"`
}

type stockRow struct {
	Location string `json:"location" binding:"required"`
	Quantity int    `json:"quantity" binding:"gte=0"`
}

func createSessionHandler(service *application.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RunID          string           `json:"runId"`
			Warehouse      int              `json:"warehouse" binding:"gte=0"`
			Translation    []translationRow `json:"translation" binding:"required,min=1,dive"`
			Traversal      []traversalRow   `json:"traversal" binding:"required,min=1,dive"`
			Initial        []stockRow       `json:"initial" binding:"omitempty,dive"`
			OrderBatchSize int              `json:"orderBatchSize" binding:"gte=0"`
			TruckSize      int              `json:"truckSize" binding:"gte=0"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		cmd := application.CreateSessionCommand{
			RunID:          req.RunID,
			Warehouse:      req.Warehouse,
			OrderBatchSize: req.OrderBatchSize,
			TruckSize:      req.TruckSize,
		}
		for _, row := range req.Translation {
			cmd.Translation = append(cmd.Translation, application.TranslationRowInput(row))
		}
		for _, row := range req.Traversal {
			cmd.Traversal = append(cmd.Traversal, application.TraversalRowInput(row))
		}
		for _, row := range req.Initial {
			cmd.Initial = append(cmd.Initial, application.StockRowInput(row))
		}

		session, err := service.CreateSession(c.Request.Context(), cmd)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}

		middleware.SpanFromGinContext(c).SetAttributes(
			attribute.String("session.id", session.ID),
			attribute.String("run.id", session.RunID),
			attribute.Int("warehouse", session.Warehouse),
		)
		c.JSON(http.StatusCreated, session)
	}
}

func listSessionsHandler(service *application.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, service.ListSessions(c.Request.Context()))
	}
}

func getSessionHandler(service *application.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := service.GetSession(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func applyEventHandler(service *application.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")

		var req struct {
			Line     string `json:"line" binding:"required_without=Kind"`
			Kind     string `json:"kind" binding:"required_without=Line,omitempty,oneof=order ready scan rescan complete discard replenish"`
			Station  string `json:"station" binding:"omitempty,station"`
			Worker   string `json:"worker" binding:"omitempty,worker_name"`
			Model    string `json:"model"`
			Colour   string `json:"colour"`
			SKU      string `json:"sku" binding:"omitempty,sku"`
			Location string `json:"location"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		middleware.SpanFromGinContext(c).SetAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("event.kind", req.Kind),
		)

		result, err := service.ApplyEvent(c.Request.Context(), application.ApplyEventCommand{
			SessionID: sessionID,
			Line:      req.Line,
			Event: application.EventInput{
				Kind:     req.Kind,
				Station:  req.Station,
				Worker:   req.Worker,
				Model:    req.Model,
				Colour:   req.Colour,
				SKU:      req.SKU,
				Location: req.Location,
			},
		})
		if err != nil {
			if result != nil {
				c.Header(middleware.HeaderEventOutcome, result.Outcome)
			}
			middleware.AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func getInventoryHandler(service *application.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		inventory, err := service.GetInventory(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, inventory)
	}
}

func getTrucksHandler(service *application.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		trucks, err := service.GetTrucks(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, trucks)
	}
}

// closeSessionHandler answers with the final result even when archiving
// failed; the failure is logged
func closeSessionHandler(service *application.SessionService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")

		result, err := service.CloseSession(c.Request.Context(), sessionID)
		if result == nil {
			middleware.AbortWithError(c, err)
			return
		}
		if err != nil {
			logger.WithContext(c.Request.Context()).WithError(err).Warn("Session closed without archiving", "sessionId", sessionID)
		}
		c.JSON(http.StatusOK, result)
	}
}

func getRunHandler(service *application.SimulationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := service.GetRun(c.Request.Context(), c.Param("runId"))
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
	}
}
