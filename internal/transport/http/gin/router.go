package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/kirinyoku/courtbook/internal/domain"
	redisrepo "github.com/kirinyoku/courtbook/internal/repository/redis"
	"github.com/kirinyoku/courtbook/internal/service"
	"github.com/kirinyoku/courtbook/internal/service/catalog"
	"github.com/kirinyoku/courtbook/internal/service/journal"
	"github.com/kirinyoku/courtbook/internal/service/session"
	"github.com/kirinyoku/courtbook/internal/workflow"
)

const idemLockTTL = 60 * time.Second

var now = time.Now

// NewRouter builds the HTTP API. idem and limiter may be nil, which turns
// Idempotency-Key replay and confirm rate limiting off.
func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *zap.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Catalog
	r.GET("/campuses", handleListCampuses(svcs))
	r.GET("/campuses/:id/sports", handleListSports(svcs))
	r.GET("/calendar", handleCalendar(svcs))

	// Booking sessions
	sessions := r.Group("/sessions")
	{
		sessions.POST("", handleCreateSession(svcs))
		sessions.GET("/:id", handleGetSession(svcs))
		sessions.DELETE("/:id", handleCloseSession(svcs))

		sessions.PUT("/:id/campus", handleSelectCampus(svcs))
		sessions.PUT("/:id/sport", handleSelectSport(svcs))
		sessions.PUT("/:id/date", handleSelectDate(svcs))
		sessions.POST("/:id/week", handleNavigateWeek(svcs))
		sessions.POST("/:id/availability/refresh", handleRefreshAvailability(svcs))
		sessions.PUT("/:id/slot", handleSelectSlot(svcs))
		sessions.POST("/:id/review", handleReview(svcs))
		sessions.POST("/:id/dismiss", handleDismiss(svcs))
		sessions.POST("/:id/confirm", handleConfirm(svcs, idem, limiter))

		sessions.GET("/:id/reservations", handleListReservations(svcs))
		sessions.POST("/:id/reservations/refresh", handleRefreshReservations(svcs))
		sessions.POST("/:id/reservations/:rid/cancel", handleCancelReservation(svcs))
	}

	r.GET("/owners/:owner_id/journal", handleListJournal(svcs))

	return r
}

// --- Catalog ---

// @Summary  List campuses
// @Success  200  {array}   domain.Campus
// @Failure  502  {object}  ErrorResponse
// @Router   /campuses [get]
func handleListCampuses(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		campuses, err := svcs.Catalog.Campuses(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, campuses, "public, max-age=300")
	}
}

// @Summary  List sports offered at a campus
// @Param    id  path  int  true  "Campus ID"
// @Success  200  {array}   domain.Sport
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  502  {object}  ErrorResponse
// @Router   /campuses/{id}/sports [get]
func handleListSports(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		campusID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if _, err := svcs.Catalog.Campus(c.Request.Context(), campusID); err != nil {
			respondErr(c, err)
			return
		}

		sports, err := svcs.Catalog.Sports(c.Request.Context(), campusID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, sports, "public, max-age=300")
	}
}

// @Summary  Bookable days of the week containing date
// @Param    date  query  string  false  "YYYY-MM-DD, defaults to today"
// @Success  200  {object}  CalendarResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /calendar [get]
func handleCalendar(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		today := domain.DateOf(now())
		date := today
		if raw := c.Query("date"); raw != "" {
			d, err := domain.ParseDate(raw)
			if err != nil {
				badRequest(c, "invalid date")
				return
			}
			date = d
		}

		cal := svcs.Calendar
		writeJSONWithCache(c, http.StatusOK, CalendarResponse{
			Date:     date,
			Previous: cal.Navigate(date, today, workflow.DirectionPrev),
			Next:     cal.Navigate(date, today, workflow.DirectionNext),
			Days:     cal.Week(date, today),
		}, "private, max-age=60")
	}
}

// --- Sessions ---

// @Summary  Open a booking session
// @Param    req  body  CreateSessionRequest  true  "payload"
// @Success  201  {object}  SessionResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /sessions [post]
func handleCreateSession(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		s, err := svcs.Sessions.Create(req.OwnerID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, sessionResponse(s))
	}
}

// @Summary  Session snapshot
// @Param    id  path  string  true  "Session ID (uuid)"
// @Success  200  {object}  SessionResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /sessions/{id} [get]
func handleGetSession(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, sessionResponse(s))
	}
}

// @Summary  Close a session
// @Param    id  path  string  true  "Session ID (uuid)"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Router   /sessions/{id} [delete]
func handleCloseSession(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		if err := svcs.Sessions.Close(id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Choose a campus
// @Param    id   path  string               true  "Session ID (uuid)"
// @Param    req  body  SelectCampusRequest  true  "payload"
// @Success  200  {object}  SessionResponse
// @Router   /sessions/{id}/campus [put]
func handleSelectCampus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		var req SelectCampusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		done, err := s.Booking.SelectCampus(req.CampusID)
		respondTransition(c, s, done, err)
	}
}

// @Summary  Choose a sport by id or by name
// @Param    id   path  string              true  "Session ID (uuid)"
// @Param    req  body  SelectSportRequest  true  "payload"
// @Success  200  {object}  SessionResponse
// @Router   /sessions/{id}/sport [put]
func handleSelectSport(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		var req SelectSportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		var err error
		switch {
		case req.SportID > 0:
			err = s.Booking.SelectSport(req.SportID)
		case strings.TrimSpace(req.SportName) != "":
			err = s.Booking.SelectSportNamed(req.SportName)
		default:
			badRequest(c, "sport_id or sport_name is required")
			return
		}
		respondTransition(c, s, nil, err)
	}
}

// @Summary  Choose a date and load its slots
// @Param    id   path  string             true  "Session ID (uuid)"
// @Param    req  body  SelectDateRequest  true  "payload"
// @Success  200  {object}  SessionResponse
// @Router   /sessions/{id}/date [put]
func handleSelectDate(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		var req SelectDateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		date, err := domain.ParseDate(req.Date)
		if err != nil {
			badRequest(c, "invalid date")
			return
		}
		done, err := s.Booking.SelectDate(date)
		respondTransition(c, s, done, err)
	}
}

// @Summary  Move the selected date one week
// @Param    id   path  string               true  "Session ID (uuid)"
// @Param    req  body  NavigateWeekRequest  true  "payload"
// @Success  200  {object}  SessionResponse
// @Router   /sessions/{id}/week [post]
func handleNavigateWeek(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		var req NavigateWeekRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		done, err := s.Booking.NavigateWeek(req.Direction)
		respondTransition(c, s, done, err)
	}
}

// @Summary  Reload the slots of the current selection
// @Param    id  path  string  true  "Session ID (uuid)"
// @Success  200  {object}  SessionResponse
// @Router   /sessions/{id}/availability/refresh [post]
func handleRefreshAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		done, err := s.Booking.RefreshAvailability()
		respondTransition(c, s, done, err)
	}
}

// @Summary  Choose a slot
// @Param    id   path  string             true  "Session ID (uuid)"
// @Param    req  body  SelectSlotRequest  true  "payload"
// @Success  200  {object}  SessionResponse
// @Router   /sessions/{id}/slot [put]
func handleSelectSlot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		var req SelectSlotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		respondTransition(c, s, nil, s.Booking.SelectSlot(req.ScheduleID))
	}
}

// @Summary  Open the confirmation summary
// @Param    id  path  string  true  "Session ID (uuid)"
// @Success  200  {object}  SessionResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /sessions/{id}/review [post]
func handleReview(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		respondTransition(c, s, nil, s.Booking.Review())
	}
}

// @Summary  Close the confirmation summary
// @Param    id  path  string  true  "Session ID (uuid)"
// @Success  200  {object}  SessionResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /sessions/{id}/dismiss [post]
func handleDismiss(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		respondTransition(c, s, nil, s.Booking.Dismiss())
	}
}

// @Summary  Submit the reviewed slot (idempotent)
// @Param    id               path    string  true   "Session ID (uuid)"
// @Param    Idempotency-Key  header  string  false  "replays the booked response"
// @Success  201  {object}  SessionResponse  "booked"
// @Success  200  {object}  SessionResponse  "conflict or failure, see booking.state"
// @Failure  409  {object}  ErrorResponse    "submission in progress / not allowed"
// @Failure  429  {object}  ErrorResponse    "rate limited"
// @Router   /sessions/{id}/confirm [post]
func handleConfirm(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemConfirm(s.ID.String(), idemKey)

			if payload, ok, _ := idem.GetResult(ctx, idemStorageKey); ok {
				replay(c, idemKey, payload)
				return
			}

			locked, err := idem.AcquireLock(ctx, idemStorageKey, idemLockTTL)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(ctx, idemStorageKey); ok {
					replay(c, idemKey, payload)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		release := func() {
			if idemStorageKey != "" {
				_ = idem.Release(context.WithoutCancel(ctx), idemStorageKey)
			}
		}

		if limiter != nil {
			d, err := limiter.Allow(ctx, strconv.FormatInt(s.OwnerID, 10))
			if err != nil {
				release()
				respondErr(c, err)
				return
			}
			if !d.Allowed {
				release()
				c.Header("Retry-After", strconv.Itoa(int(d.RetryAfter.Round(time.Second).Seconds())))
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
				return
			}
		}

		done, err := s.Booking.Confirm()
		if err != nil {
			release()
			respondErr(c, err)
			return
		}
		await(ctx, done)

		resp := sessionResponse(s)
		if resp.Booking.State != workflow.StateBooked {
			release()
			c.JSON(http.StatusOK, resp)
			return
		}

		if idemStorageKey != "" {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(context.WithoutCancel(ctx), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// --- Reservation history ---

// @Summary  Upcoming reservations of the session owner
// @Param    id  path   string  true   "Session ID (uuid)"
// @Param    q   query  string  false  "campus, sport or day name"
// @Success  200  {object}  ReservationsResponse
// @Failure  502  {object}  ErrorResponse
// @Router   /sessions/{id}/reservations [get]
func handleListReservations(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		if !ensureHistory(c, s) {
			return
		}

		q := strings.TrimSpace(c.Query("q"))
		c.JSON(http.StatusOK, ReservationsResponse{
			OwnerID:    s.OwnerID,
			Query:      q,
			Items:      s.History.Search(q),
			Cancelling: s.History.Snapshot().Cancelling,
		})
	}
}

// @Summary  Reload the reservations of the session owner
// @Param    id  path  string  true  "Session ID (uuid)"
// @Success  200  {object}  ReservationsResponse
// @Failure  502  {object}  ErrorResponse
// @Router   /sessions/{id}/reservations/refresh [post]
func handleRefreshReservations(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		items, err := s.History.Load(c.Request.Context(), s.OwnerID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ReservationsResponse{OwnerID: s.OwnerID, Items: items})
	}
}

// @Summary  Cancel a reservation
// @Param    id   path  string  true  "Session ID (uuid)"
// @Param    rid  path  int     true  "Reservation ID"
// @Success  200  {object}  CancelResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "cancellation in progress"
// @Router   /sessions/{id}/reservations/{rid}/cancel [post]
func handleCancelReservation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, svcs)
		if !ok {
			return
		}
		rid, ok := parseInt64Param(c, "rid")
		if !ok {
			return
		}
		if !ensureHistory(c, s) {
			return
		}

		res, err := s.History.Cancel(c.Request.Context(), rid)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, CancelResponse{
			ReservationID: rid,
			Result:        res,
			Items:         s.History.Snapshot().Items,
		})
	}
}

// @Summary  Recorded submission and cancellation outcomes of an owner
// @Param    owner_id  path   int  true   "Owner ID"
// @Param    limit     query  int  false  "max entries"
// @Success  200  {object}  JournalResponse
// @Failure  503  {object}  ErrorResponse  "journal disabled"
// @Router   /owners/{owner_id}/journal [get]
func handleListJournal(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svcs.Journal == nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "journal disabled"})
			return
		}
		ownerID, ok := parseInt64Param(c, "owner_id")
		if !ok {
			return
		}
		entries, err := svcs.Journal.List(
			c.Request.Context(),
			ownerID,
			parseIntDefault(c.Query("limit"), journal.DefaultListLimit),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		if entries == nil {
			entries = []domain.JournalEntry{}
		}
		c.JSON(http.StatusOK, JournalResponse{OwnerID: ownerID, Entries: entries})
	}
}

// --- Helpers ---

func sessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:      s.ID.String(),
		OwnerID: s.OwnerID,
		Booking: s.Booking.Snapshot(),
	}
}

// respondTransition waits for the load a transition started, bounded by the
// request, and answers with the resulting snapshot.
func respondTransition(c *gin.Context, s *session.Session, done <-chan struct{}, err error) {
	if err != nil {
		respondErr(c, err)
		return
	}
	await(c.Request.Context(), done)
	c.JSON(http.StatusOK, sessionResponse(s))
}

func await(ctx context.Context, done <-chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func ensureHistory(c *gin.Context, s *session.Session) bool {
	if s.History.Snapshot().Loaded {
		return true
	}
	if _, err := s.History.Load(c.Request.Context(), s.OwnerID); err != nil {
		respondErr(c, err)
		return false
	}
	return true
}

func replay(c *gin.Context, idemKey, payload string) {
	c.Header("Idempotency-Key", idemKey)
	c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

func lookupSession(c *gin.Context, svcs *service.Services) (*session.Session, bool) {
	id, ok := parseSessionID(c)
	if !ok {
		return nil, false
	}
	s, err := svcs.Sessions.Get(id)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	return s, true
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// sessions
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
	case errors.Is(err, session.ErrInvalidOwner), errors.Is(err, journal.ErrInvalidOwner):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid owner id"})
	case errors.Is(err, session.ErrManagerClosed):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "shutting down"})
	// workflow
	case errors.Is(err, workflow.ErrSubmitInProgress):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "submission in progress"})
	case errors.Is(err, workflow.ErrCancelInProgress):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "cancellation in progress"})
	case errors.Is(err, workflow.ErrNotRetryable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "submission cannot be retried, choose a slot again"})
	case errors.Is(err, workflow.ErrInvalidState):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "action not allowed now"})
	case errors.Is(err, workflow.ErrUnknownReservation):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "reservation not found"})
	case errors.Is(err, workflow.ErrClosed):
		c.JSON(http.StatusGone, ErrorResponse{Error: "session closed"})
	// catalog
	case errors.Is(err, catalog.ErrCampusNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "campus not found"})
	// remote service
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "slot already booked"})
	case errors.Is(err, domain.ErrValidation):
		_ = c.Error(err)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "request rejected by the reservation service"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "reservation service timed out"})
	case errors.Is(err, domain.ErrTransient), errors.Is(err, domain.ErrAvailabilityFetch):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "reservation service unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
