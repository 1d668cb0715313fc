package devtools

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Yukasama/haus/pkg/apperror"
)

// Handler serves developer tools endpoints
type Handler struct {
	seeder Seeder
}

// NewHandler creates a new devtools handler
func NewHandler(seeder Seeder) *Handler {
	return &Handler{seeder: seeder}
}

// PopulateResponse reports a reload of the seed data
type PopulateResponse struct {
	DBPopulate string `json:"db_populate"`
	Haeuser    int    `json:"haeuser"`
}

// Populate reloads the seed data
// @Summary      Reload the development database
// @Description  Truncates the haus tables and loads the embedded seed (only with DEV_DB_POPULATE=true)
// @Tags         devtools
// @Produce      json
// @Success      200 {object} PopulateResponse
// @Failure      401 {object} apperror.Error
// @Failure      403 {object} apperror.Error
// @Router       /dev/db_populate [post]
// @Security     bearerAuth
func (h *Handler) Populate(c echo.Context) error {
	n, err := h.seeder.Populate(c.Request().Context())
	if err != nil {
		return apperror.ErrDatabase.WithMessage("Seed data could not be loaded").WithInternal(err)
	}
	return c.JSON(http.StatusOK, PopulateResponse{DBPopulate: "success", Haeuser: n})
}
