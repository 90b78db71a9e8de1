package http

import (
	"log/slog"
	"net/http"

	"taxidiario/internal/core"
	"taxidiario/internal/reconcile"
)

type shiftResponse struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time,omitempty"`
	OdometerStart int64  `json:"odometer_start"`
	OdometerEnd   int64  `json:"odometer_end,omitempty"`
	Sequence      int    `json:"sequence"`
	Active        bool   `json:"active"`
}

func toShiftResponse(s *core.Shift) shiftResponse {
	return shiftResponse{
		ID:            s.ID,
		Date:          s.Date.Display(),
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		OdometerStart: s.OdometerStart,
		OdometerEnd:   s.OdometerEnd,
		Sequence:      s.Sequence,
		Active:        s.Active,
	}
}

func (s *Server) handleOpenShift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Date          string `json:"date"`
		StartTime     string `json:"start_time"`
		OdometerStart int64  `json:"odometer_start"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	day, err := parseDateParam(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}

	shift, err := s.shifts.OpenShift(r.Context(), day, sanitizeInput(req.StartTime), req.OdometerStart)
	if err != nil {
		slog.ErrorContext(r.Context(), "Open shift failed", "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	s.invalidateSummaries(shift.Date)
	writeJSON(w, http.StatusCreated, toShiftResponse(shift))
}

func (s *Server) handleCloseShift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ShiftID     string `json:"shift_id"`
		EndTime     string `json:"end_time"`
		OdometerEnd int64  `json:"odometer_end"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	shift, err := s.shifts.CloseShift(r.Context(), sanitizeInput(req.ShiftID), sanitizeInput(req.EndTime), req.OdometerEnd)
	if err != nil {
		slog.ErrorContext(r.Context(), "Close shift failed", "shift_id", req.ShiftID, "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	s.invalidateSummaries(shift.Date)
	writeJSON(w, http.StatusOK, toShiftResponse(shift))
}

func (s *Server) handleDeleteShift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ShiftID string `json:"shift_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.shifts.DeleteShift(r.Context(), sanitizeInput(req.ShiftID)); err != nil {
		slog.ErrorContext(r.Context(), "Delete shift failed", "shift_id", req.ShiftID, "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	// The cascade may touch any day, so all rollups go stale.
	s.dailyCache.Purge()
	s.monthCache.Purge()
	s.yearCache.Purge()
	writeJSON(w, http.StatusOK, map[string]string{"deleted": req.ShiftID})
}

func (s *Server) handleActiveShift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	shift, err := s.shifts.ActiveShift(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Active shift lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if shift == nil {
		writeJSON(w, http.StatusOK, map[string]any{"shift": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shift": toShiftResponse(shift)})
}

type fareResponse struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"`
	Time     string `json:"time,omitempty"`
	Metered  string `json:"metered"`
	Actual   string `json:"actual"`
	Tip      string `json:"tip"`
	Payment  string `json:"payment"`
	Dispatch bool   `json:"dispatch,omitempty"`
	Airport  bool   `json:"airport,omitempty"`
	ShiftRef string `json:"shift_ref"`
}

func toFareResponse(f core.Fare) fareResponse {
	return fareResponse{
		ID:       f.ID,
		Date:     f.Date.Display(),
		Time:     f.Time,
		Metered:  f.Metered.String(),
		Actual:   f.Actual.String(),
		Tip:      f.Tip().String(),
		Payment:  string(f.Payment),
		Dispatch: f.Dispatch,
		Airport:  f.Airport,
		ShiftRef: f.ShiftRef,
	}
}

type dayBucketResponse struct {
	ShiftID  string         `json:"shift_id"`
	Sequence int            `json:"sequence"`
	Orphaned bool           `json:"orphaned"` // no stored shift matched the reference
	Shift    *shiftResponse `json:"shift,omitempty"`
	Fares    []fareResponse `json:"fares"`
}

// handleDayDetail lists a day's shifts with their fares grouped under
// them, including pseudo-buckets for fares whose reference matched no
// stored shift.
func (s *Server) handleDayDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	day, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}

	shifts, err := s.days.ShiftsByDate(r.Context(), day)
	if err != nil {
		slog.ErrorContext(r.Context(), "Day shifts read failed", "date", day.Display(), "error", err)
		writeError(w, http.StatusInternalServerError, "read failed")
		return
	}
	fares, err := s.days.FaresByDate(r.Context(), day)
	if err != nil {
		slog.ErrorContext(r.Context(), "Day fares read failed", "date", day.Display(), "error", err)
		writeError(w, http.StatusInternalServerError, "read failed")
		return
	}

	buckets := reconcile.GroupFares(shifts, fares)
	out := make([]dayBucketResponse, 0, len(buckets))
	for _, b := range buckets {
		resp := dayBucketResponse{
			ShiftID:  b.ShiftID,
			Sequence: b.Sequence,
			Orphaned: b.Shift == nil,
			Fares:    make([]fareResponse, 0, len(b.Fares)),
		}
		if b.Shift != nil {
			sr := toShiftResponse(b.Shift)
			resp.Shift = &sr
		}
		for _, f := range b.Fares {
			resp.Fares = append(resp.Fares, toFareResponse(f))
		}
		out = append(out, resp)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":    day.Display(),
		"buckets": out,
	})
}

func (s *Server) handleCreateFare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Date     string `json:"date"`
		Time     string `json:"time"`
		Metered  string `json:"metered"`
		Actual   string `json:"actual"`
		Payment  string `json:"payment"`
		Dispatch bool   `json:"dispatch"`
		Airport  bool   `json:"airport"`
		ShiftRef string `json:"shift_ref"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	day, err := parseDateParam(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}
	metered, err := core.ParseDecimalToCents(req.Metered)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid metered amount")
		return
	}
	actual, err := core.ParseDecimalToCents(req.Actual)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid actual amount")
		return
	}

	fare := core.Fare{
		Date:     day,
		Time:     sanitizeInput(req.Time),
		Metered:  core.Money{Cents: metered},
		Actual:   core.Money{Cents: actual},
		Payment:  core.PaymentMethod(sanitizeInput(req.Payment)),
		Dispatch: req.Dispatch,
		Airport:  req.Airport,
		ShiftRef: sanitizeInput(req.ShiftRef),
	}

	id, err := s.fares.LogFare(r.Context(), fare)
	if err != nil {
		slog.ErrorContext(r.Context(), "Log fare failed", "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	s.invalidateSummaries(day)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":  id,
		"tip": fare.Tip().String(),
	})
}

func (s *Server) handleDeleteFare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID   int64  `json:"id"`
		Date string `json:"date"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The stored fare knows the day whose summaries go stale; the
	// optional date field is only a fallback for already-gone rows.
	var day core.Date
	dayKnown := false
	if fare, err := s.fares.Get(r.Context(), req.ID); err == nil {
		day, dayKnown = fare.Date, true
	} else if d, perr := parseDateParam(req.Date); req.Date != "" && perr == nil {
		day, dayKnown = d, true
	}

	if err := s.fares.DeleteFare(r.Context(), req.ID); err != nil {
		slog.ErrorContext(r.Context(), "Delete fare failed", "id", req.ID, "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	if dayKnown {
		s.invalidateSummaries(day)
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": req.ID})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Date        string `json:"date"`
		Invoice     string `json:"invoice"`
		Supplier    string `json:"supplier"`
		Total       string `json:"total"`
		VAT         string `json:"vat"`
		Odometer    int64  `json:"odometer"`
		Category    string `json:"category"`
		Subcategory string `json:"subcategory"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	day, err := parseDateParam(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}
	total, err := core.ParseDecimalToCents(req.Total)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid total amount")
		return
	}
	var vat int64
	if req.VAT != "" {
		vat, err = core.ParseDecimalToCents(req.VAT)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid VAT amount")
			return
		}
	}

	expense := core.Expense{
		Date:        day,
		Invoice:     sanitizeInput(req.Invoice),
		Supplier:    sanitizeInput(req.Supplier),
		Total:       core.Money{Cents: total},
		VAT:         core.Money{Cents: vat},
		Odometer:    req.Odometer,
		Category:    sanitizeInput(req.Category),
		Subcategory: sanitizeInput(req.Subcategory),
		Description: sanitizeInput(req.Description),
	}

	id, err := s.records.AddExpense(r.Context(), expense)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add expense failed", "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	s.invalidateSummaries(day)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleCreateOtherIncome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Date        string `json:"date"`
		Concept     string `json:"concept"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
		Notes       string `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	day, err := parseDateParam(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}
	amount, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	income := core.OtherIncome{
		Date:        day,
		Concept:     sanitizeInput(req.Concept),
		Amount:      core.Money{Cents: amount},
		Description: sanitizeInput(req.Description),
		Notes:       sanitizeInput(req.Notes),
	}

	id, err := s.records.AddOtherIncome(r.Context(), income)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add other income failed", "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	s.invalidateSummaries(day)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	day, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}

	key := day.IDSuffix()
	if totals, ok := s.dailyCache.Get(key); ok {
		writeJSON(w, http.StatusOK, totals)
		return
	}

	totals, err := s.engine.DailyTotals(r.Context(), day)
	if err != nil {
		slog.ErrorContext(r.Context(), "Daily summary failed", "date", day.Display(), "error", err)
		writeError(w, http.StatusInternalServerError, "summary failed")
		return
	}

	s.dailyCache.Set(key, totals)
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	year, month := parseYearMonth(r)
	key := monthKey(year, month)
	if summary, ok := s.monthCache.Get(key); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	summary, err := s.engine.MonthSummary(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month summary failed", "year", year, "month", month, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.monthCache.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleYearSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	year, _ := parseYearMonth(r)
	key := yearKey(year)
	if summary, ok := s.yearCache.Get(key); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	summary, err := s.engine.YearSummary(r.Context(), year)
	if err != nil {
		slog.ErrorContext(r.Context(), "Year summary failed", "year", year, "error", err)
		writeError(w, http.StatusInternalServerError, "summary failed")
		return
	}

	s.yearCache.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report generation not configured")
		return
	}

	year, month := parseYearMonth(r)
	data, err := s.engine.MonthlyReport(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month report failed", "year", year, "month", month, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	path, err := s.reports.Write(data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Report workbook write failed", "year", year, "month", month, "error", err)
		writeError(w, http.StatusInternalServerError, "workbook write failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}
