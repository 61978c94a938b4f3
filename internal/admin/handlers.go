package admin

import (
	stderrs "errors"
	"io"
	"net/http"

	"github.com/Station-Manager/orderdebug"
	"github.com/Station-Manager/orderdebug/internal/metrics"
	"github.com/labstack/echo/v4"
)

type HealthResponse struct {
	Status     string `json:"status"`
	Active     bool   `json:"active"`
	SeenOrders int    `json:"seen_orders"`
}

type LogResponse struct {
	Entries string `json:"entries"`
	Empty   bool   `json:"empty"`
}

type EventResponse struct {
	Kind     orderdebug.EventKind `json:"kind"`
	Handlers int                  `json:"handlers"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Active:     s.debugger.Active(),
		SeenOrders: s.debugger.SeenOrders(),
	})
}

// handlePage renders the settings form and the current log.
func (s *Server) handlePage(c echo.Context) error {
	log, err := s.debugger.LogContents()
	if err != nil && !stderrs.Is(err, orderdebug.ErrNoEntries) {
		s.logger.ErrorWith().Err(err).Msg("Failed to read debug log.")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read debug log")
	}
	view := newPageView(s.debugger.Settings(), s.debugger.Active(), log, notices[c.QueryParam("notice")])
	return c.Render(http.StatusOK, pageTemplate, view)
}

// handleSettingsForm replaces every switch from the form: a category whose
// checkbox is absent is switched off.
func (s *Server) handleSettingsForm(c echo.Context) error {
	settings, err := settingsFromForm(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = s.debugger.UpdateSettings(c.Request().Context(), settings); err != nil {
		s.logger.ErrorWith().Err(err).Msg("Failed to save debug settings.")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save settings")
	}
	return c.Redirect(http.StatusSeeOther, "/?notice=updated")
}

func (s *Server) handleClearForm(c echo.Context) error {
	if err := s.debugger.ClearLog(); err != nil {
		s.logger.ErrorWith().Err(err).Msg("Failed to clear debug log.")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear log")
	}
	return c.Redirect(http.StatusSeeOther, "/?notice=cleared")
}

func (s *Server) handleGetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, s.debugger.Settings())
}

// handlePutSettings accepts the same document the store holds. Fields left out
// keep their defaults.
func (s *Server) handlePutSettings(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	settings, err := orderdebug.DecodeSettings(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = s.debugger.UpdateSettings(c.Request().Context(), settings); err != nil {
		s.logger.ErrorWith().Err(err).Msg("Failed to save debug settings.")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save settings")
	}
	return c.JSON(http.StatusOK, s.debugger.Settings())
}

func (s *Server) handleGetLog(c echo.Context) error {
	log, err := s.debugger.LogContents()
	if stderrs.Is(err, orderdebug.ErrNoEntries) {
		return c.JSON(http.StatusOK, LogResponse{Empty: true})
	}
	if err != nil {
		s.logger.ErrorWith().Err(err).Msg("Failed to read debug log.")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read debug log")
	}
	return c.JSON(http.StatusOK, LogResponse{Entries: log})
}

func (s *Server) handleDeleteLog(c echo.Context) error {
	if err := s.debugger.ClearLog(); err != nil {
		s.logger.ErrorWith().Err(err).Msg("Failed to clear debug log.")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear log")
	}
	return c.NoContent(http.StatusNoContent)
}

// handleEvent decodes one event envelope and publishes it synchronously.
func (s *Server) handleEvent(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	ev, err := orderdebug.DecodeEvent(body)
	if err != nil {
		metrics.EventsRejected.WithLabelValues(SourceWebhook).Inc()
		s.logger.WarnWith().Err(err).Msg("Rejected host event.")
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	metrics.EventsReceived.WithLabelValues(string(ev.Kind()), SourceWebhook).Inc()
	n := s.bus.Publish(c.Request().Context(), ev)
	return c.JSON(http.StatusAccepted, EventResponse{Kind: ev.Kind(), Handlers: n})
}

// settingsFromForm builds complete settings from the posted form.
func settingsFromForm(c echo.Context) (orderdebug.Settings, error) {
	settings := orderdebug.DefaultSettings()
	for _, cat := range orderdebug.Categories() {
		on, ok := orderdebug.ParseFlag(c.FormValue(cat.OptionKey()))
		if !ok {
			return settings, stderrs.New("invalid value for " + cat.OptionKey())
		}
		settings.Set(cat, on)
	}
	settings.Actions = orderdebug.SplitList(c.FormValue("log_actions"))
	settings.Filters = orderdebug.SplitList(c.FormValue("log_filters"))
	return settings, nil
}
