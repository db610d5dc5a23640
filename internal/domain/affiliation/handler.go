package affiliation

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/khoj-clinics/khoj/internal/platform/auth"
	"github.com/khoj-clinics/khoj/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	party := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleClinic))
	party.POST("/affiliations", h.CreateRequest)
	party.POST("/affiliations/:id/actions", h.ProcessAction)

	api.GET("/affiliations", h.ListAffiliations)
	api.GET("/affiliations/:id", h.GetAffiliation)
}

type createRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	ClinicID uuid.UUID `json:"clinic_id"`
	Terms
}

type actionRequest struct {
	Action string `json:"action"`
	Terms
}

func actingParty(c echo.Context) (Party, uuid.UUID, error) {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return "", uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	switch actor.Role {
	case auth.RoleDoctor:
		return PartyDoctor, actor.ID, nil
	case auth.RoleClinic:
		return PartyClinic, actor.ID, nil
	}
	return "", uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "only doctors and clinics negotiate affiliations")
}

func (h *Handler) CreateRequest(c echo.Context) error {
	party, actingID, err := actingParty(c)
	if err != nil {
		return err
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.CreateRequest(c.Request().Context(), party, actingID, req.DoctorID, req.ClinicID, req.Terms)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ProcessAction(c echo.Context) error {
	party, actingID, err := actingParty(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req actionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.ProcessAction(c.Request().Context(), party, actingID, id, req.Action, req.Terms)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) GetAffiliation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAffiliations(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"doctor_id", "clinic_id", "status", "pending_for"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
