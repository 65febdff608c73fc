// Package ui keeps per-user presentation state: modals, toasts, responsive
// flags, form maps and display preferences.
package ui

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
)

const (
	DefaultToastDuration    = 5 * time.Second
	DefaultMobileBreakpoint = 768
	DefaultTabletBreakpoint = 1024
)

type Config struct {
	ToastDuration    time.Duration
	MobileBreakpoint int
	TabletBreakpoint int
}

func (c Config) withDefaults() Config {
	if c.ToastDuration <= 0 {
		c.ToastDuration = DefaultToastDuration
	}
	if c.MobileBreakpoint <= 0 {
		c.MobileBreakpoint = DefaultMobileBreakpoint
	}
	if c.TabletBreakpoint <= c.MobileBreakpoint {
		c.TabletBreakpoint = DefaultTabletBreakpoint
	}
	return c
}

type ToastType string

const (
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
	ToastWarning ToastType = "warning"
	ToastInfo    ToastType = "info"
)

// UseDefaultDuration asks ShowToast for the configured toast duration.
const UseDefaultDuration time.Duration = -1

// Toast is a transient message. A zero Duration makes it persistent: it stays
// until dismissed. A negative Duration means the configured default.
type Toast struct {
	ID         string        `json:"id"`
	Type       ToastType     `json:"type"`
	Title      string        `json:"title"`
	Message    string        `json:"message,omitempty"`
	Duration   time.Duration `json:"duration"`
	Persistent bool          `json:"persistent"`
	CreatedAt  time.Time     `json:"created_at"`
}

type Modal struct {
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// Responsive is derived from the viewport width.
type Responsive struct {
	Width      int    `json:"width"`
	IsMobile   bool   `json:"is_mobile"`
	IsTablet   bool   `json:"is_tablet"`
	ScreenSize string `json:"screen_size"`
}

// State is a read-only copy of a Store.
type State struct {
	Modal       *Modal                       `json:"modal,omitempty"`
	Toasts      []Toast                      `json:"toasts"`
	SidebarOpen bool                         `json:"sidebar_open"`
	Theme       Theme                        `json:"theme"`
	CompactMode bool                         `json:"compact_mode"`
	Responsive  Responsive                   `json:"responsive"`
	FormErrors  map[string]map[string]string `json:"form_errors"`
	FormData    map[string]map[string]any    `json:"form_data"`
}

// Store is the UI state of one user.
type Store struct {
	userID string
	prefs  repository.PreferenceRepository
	cfg    Config
	logger *zap.Logger

	mu         sync.Mutex
	modal      *Modal
	toasts     []Toast
	timers     map[string]*time.Timer
	sidebar    bool
	theme      Theme
	compact    bool
	responsive Responsive
	formErrors map[string]map[string]string
	formData   map[string]map[string]any
}

// NewStore builds the UI state for userID. prefs may be nil.
func NewStore(userID string, prefs repository.PreferenceRepository, cfg Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		userID: userID,
		prefs:  prefs,
		cfg:    cfg.withDefaults(),
		logger: logger.With(zap.String("store", "ui"), zap.String("user_id", userID)),
	}
	s.resetLocked()
	return s
}

func (s *Store) resetLocked() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.modal = nil
	s.toasts = nil
	s.timers = make(map[string]*time.Timer)
	s.sidebar = true
	s.theme = ThemeLight
	s.compact = false
	s.responsive = Responsive{ScreenSize: "xl"}
	s.formErrors = make(map[string]map[string]string)
	s.formData = make(map[string]map[string]any)
}

// LoadPreferences restores theme and compact mode. Missing keys keep defaults.
func (s *Store) LoadPreferences(ctx context.Context) error {
	if s.prefs == nil {
		return nil
	}
	theme, err := s.prefs.Get(ctx, s.userID, repository.KeyTheme)
	if err != nil && !errors.Is(err, domain.ErrPreferenceMissing) {
		return err
	}
	compact, err := s.prefs.Get(ctx, s.userID, repository.KeyCompactMode)
	if err != nil && !errors.Is(err, domain.ErrPreferenceMissing) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t := Theme(theme); t.Valid() {
		s.theme = t
	}
	if v, err := strconv.ParseBool(compact); err == nil {
		s.compact = v
	}
	return nil
}

func (s *Store) OpenModal(name string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modal = &Modal{Name: name, Payload: payload}
}

func (s *Store) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modal = nil
}

// ActiveModal returns the open modal, if any.
func (s *Store) ActiveModal() (Modal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modal == nil {
		return Modal{}, false
	}
	return *s.modal, true
}

// ShowToast queues a toast and schedules its dismissal.
func (s *Store) ShowToast(t Toast) Toast {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	if t.Type == "" {
		t.Type = ToastInfo
	}
	switch {
	case t.Persistent || t.Duration == 0:
		t.Persistent = true
		t.Duration = 0
	case t.Duration < 0:
		t.Duration = s.cfg.ToastDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, t)
	if !t.Persistent {
		id := t.ID
		s.timers[id] = time.AfterFunc(t.Duration, func() { s.DismissToast(id) })
	}
	return t
}

// DismissToast removes a toast. Unknown ids are ignored.
func (s *Store) DismissToast(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
	for i := range s.toasts {
		if s.toasts[i].ID == id {
			s.toasts = append(s.toasts[:i:i], s.toasts[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) Toasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Toast{}, s.toasts...)
}

// HandleError reports err to the user as an error toast.
func (s *Store) HandleError(err error) Toast {
	message := "Something went wrong"
	var derr *domain.Error
	if errors.As(err, &derr) {
		message = derr.Message
	} else if err != nil {
		message = err.Error()
	}
	s.logger.Warn("error surfaced to user", zap.Error(err))
	return s.ShowToast(Toast{Type: ToastError, Title: "Error", Message: message, Duration: UseDefaultDuration})
}

func (s *Store) ToggleSidebar() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebar = !s.sidebar
	return s.sidebar
}

func (s *Store) SetSidebarOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebar = open
}

func (s *Store) SetTheme(ctx context.Context, theme Theme) error {
	if !theme.Valid() {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid theme", errors.New(string(theme)))
	}
	if s.prefs != nil {
		if err := s.prefs.Set(ctx, s.userID, repository.KeyTheme, string(theme)); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	return nil
}

func (s *Store) SetCompactMode(ctx context.Context, compact bool) error {
	if s.prefs != nil {
		if err := s.prefs.Set(ctx, s.userID, repository.KeyCompactMode, strconv.FormatBool(compact)); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compact = compact
	return nil
}

// Resize recomputes the responsive flags. Entering mobile width closes the
// sidebar; leaving it does not reopen it.
func (s *Store) Resize(width int) Responsive {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasMobile := s.responsive.IsMobile
	s.responsive = Responsive{
		Width:      width,
		IsMobile:   width < s.cfg.MobileBreakpoint,
		IsTablet:   width >= s.cfg.MobileBreakpoint && width < s.cfg.TabletBreakpoint,
		ScreenSize: screenSize(width),
	}
	if s.responsive.IsMobile && !wasMobile {
		s.sidebar = false
	}
	return s.responsive
}

func screenSize(width int) string {
	switch {
	case width < 640:
		return "xs"
	case width < 768:
		return "sm"
	case width < 1024:
		return "md"
	case width < 1280:
		return "lg"
	default:
		return "xl"
	}
}

// SetFormErrors replaces the error map of a form.
func (s *Store) SetFormErrors(formID string, errs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(errs) == 0 {
		delete(s.formErrors, formID)
		return
	}
	copied := make(map[string]string, len(errs))
	for k, v := range errs {
		copied[k] = v
	}
	s.formErrors[formID] = copied
}

func (s *Store) SetFieldError(formID, field, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.formErrors[formID] == nil {
		s.formErrors[formID] = make(map[string]string)
	}
	s.formErrors[formID][field] = message
}

func (s *Store) ClearFormErrors(formID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.formErrors, formID)
}

func (s *Store) FormErrors(formID string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.formErrors[formID]))
	for k, v := range s.formErrors[formID] {
		out[k] = v
	}
	return out
}

// SetFormData merges values into the stored data of a form.
func (s *Store) SetFormData(formID string, values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.formData[formID] == nil {
		s.formData[formID] = make(map[string]any, len(values))
	}
	for k, v := range values {
		s.formData[formID][k] = v
	}
}

func (s *Store) FormData(formID string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.formData[formID]))
	for k, v := range s.formData[formID] {
		out[k] = v
	}
	return out
}

func (s *Store) ClearFormData(formID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.formData, formID)
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := State{
		Toasts:      append([]Toast{}, s.toasts...),
		SidebarOpen: s.sidebar,
		Theme:       s.theme,
		CompactMode: s.compact,
		Responsive:  s.responsive,
		FormErrors:  make(map[string]map[string]string, len(s.formErrors)),
		FormData:    make(map[string]map[string]any, len(s.formData)),
	}
	if s.modal != nil {
		m := *s.modal
		state.Modal = &m
	}
	for id, errs := range s.formErrors {
		copied := make(map[string]string, len(errs))
		for k, v := range errs {
			copied[k] = v
		}
		state.FormErrors[id] = copied
	}
	for id, data := range s.formData {
		copied := make(map[string]any, len(data))
		for k, v := range data {
			copied[k] = v
		}
		state.FormData[id] = copied
	}
	return state
}

// Reset restores defaults and cancels pending toast timers.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}
