package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealease/backend/domain"
	"github.com/dealease/backend/repository"
	"github.com/dealease/backend/repository/memory"
)

func TestStore_ToastAutoDismiss(t *testing.T) {
	store := NewStore("u1", nil, Config{ToastDuration: 20 * time.Millisecond}, nil)

	short := store.ShowToast(Toast{Title: "Saved", Type: ToastSuccess, Duration: UseDefaultDuration})
	sticky := store.ShowToast(Toast{Title: "Read me", Persistent: true})
	assert.NotEqual(t, short.ID, sticky.ID)
	assert.Equal(t, 20*time.Millisecond, short.Duration)
	assert.Zero(t, sticky.Duration)
	require.Len(t, store.Toasts(), 2)

	assert.Eventually(t, func() bool {
		toasts := store.Toasts()
		return len(toasts) == 1 && toasts[0].ID == sticky.ID
	}, time.Second, 5*time.Millisecond)

	assert.True(t, store.DismissToast(sticky.ID))
	assert.False(t, store.DismissToast(sticky.ID))
	assert.Empty(t, store.Toasts())
}

func TestStore_ToastDefaultDuration(t *testing.T) {
	store := NewStore("u1", nil, Config{}, nil)
	toast := store.ShowToast(Toast{Title: "Hi", Duration: UseDefaultDuration})
	assert.Equal(t, DefaultToastDuration, toast.Duration)
	assert.False(t, toast.Persistent)
	assert.Equal(t, ToastInfo, toast.Type)
	store.Reset()
	assert.Empty(t, store.Toasts())
}

func TestStore_ZeroDurationToastIsPersistent(t *testing.T) {
	store := NewStore("u1", nil, Config{ToastDuration: 10 * time.Millisecond}, nil)
	sticky := store.ShowToast(Toast{Title: "Hi", Duration: 0})
	brief := store.ShowToast(Toast{Title: "Bye", Duration: 10 * time.Millisecond})
	assert.True(t, sticky.Persistent)
	assert.Zero(t, sticky.Duration)
	assert.False(t, brief.Persistent)

	assert.Eventually(t, func() bool {
		return len(store.Toasts()) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	toasts := store.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, sticky.ID, toasts[0].ID)
}

func TestStore_Resize(t *testing.T) {
	tests := []struct {
		width  int
		mobile bool
		tablet bool
		size   string
	}{
		{width: 375, mobile: true, size: "xs"},
		{width: 700, mobile: true, size: "sm"},
		{width: 768, tablet: true, size: "md"},
		{width: 1100, size: "lg"},
		{width: 1920, size: "xl"},
	}
	store := NewStore("u1", nil, Config{}, nil)
	for _, tt := range tests {
		r := store.Resize(tt.width)
		assert.Equal(t, tt.mobile, r.IsMobile, "width %d", tt.width)
		assert.Equal(t, tt.tablet, r.IsTablet, "width %d", tt.width)
		assert.Equal(t, tt.size, r.ScreenSize, "width %d", tt.width)
	}
}

func TestStore_EnteringMobileClosesSidebarOnce(t *testing.T) {
	store := NewStore("u1", nil, Config{}, nil)
	store.Resize(1400)
	assert.True(t, store.Snapshot().SidebarOpen)

	store.Resize(500)
	assert.False(t, store.Snapshot().SidebarOpen)

	store.SetSidebarOpen(true)
	store.Resize(400)
	assert.True(t, store.Snapshot().SidebarOpen)

	store.SetSidebarOpen(false)
	store.Resize(1400)
	assert.False(t, store.Snapshot().SidebarOpen)
	assert.True(t, store.ToggleSidebar())
}

func TestStore_Modal(t *testing.T) {
	store := NewStore("u1", nil, Config{}, nil)
	_, ok := store.ActiveModal()
	assert.False(t, ok)

	store.OpenModal("schedule-meeting", map[string]string{"match_id": "m1"})
	modal, ok := store.ActiveModal()
	require.True(t, ok)
	assert.Equal(t, "schedule-meeting", modal.Name)

	store.CloseModal()
	_, ok = store.ActiveModal()
	assert.False(t, ok)
}

func TestStore_Forms(t *testing.T) {
	store := NewStore("u1", nil, Config{}, nil)
	store.SetFormErrors("profile", map[string]string{"name": "required"})
	store.SetFieldError("profile", "email", "invalid")
	assert.Equal(t, map[string]string{"name": "required", "email": "invalid"}, store.FormErrors("profile"))
	assert.Empty(t, store.FormErrors("other"))

	store.ClearFormErrors("profile")
	assert.Empty(t, store.FormErrors("profile"))

	store.SetFormData("profile", map[string]any{"name": "Ada"})
	store.SetFormData("profile", map[string]any{"city": "Austin"})
	assert.Equal(t, map[string]any{"name": "Ada", "city": "Austin"}, store.FormData("profile"))
}

func TestStore_PreferencesPersist(t *testing.T) {
	ctx := context.Background()
	prefs := memory.NewPreferenceRepository()

	store := NewStore("u1", prefs, Config{}, nil)
	require.NoError(t, store.SetTheme(ctx, ThemeDark))
	require.NoError(t, store.SetCompactMode(ctx, true))
	assert.True(t, domain.IsDomainError(store.SetTheme(ctx, "neon"), domain.ErrCodeInvalid))

	stored, err := prefs.Get(ctx, "u1", repository.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", stored)

	reloaded := NewStore("u1", prefs, Config{}, nil)
	require.NoError(t, reloaded.LoadPreferences(ctx))
	state := reloaded.Snapshot()
	assert.Equal(t, ThemeDark, state.Theme)
	assert.True(t, state.CompactMode)

	fresh := NewStore("u2", prefs, Config{}, nil)
	require.NoError(t, fresh.LoadPreferences(ctx))
	assert.Equal(t, ThemeLight, fresh.Snapshot().Theme)
}

func TestStore_HandleError(t *testing.T) {
	store := NewStore("u1", nil, Config{}, nil)
	toast := store.HandleError(domain.ErrMatchNotFound)
	assert.Equal(t, ToastError, toast.Type)
	assert.Equal(t, "match not found", toast.Message)

	toast = store.HandleError(errors.New("timeout"))
	assert.Equal(t, "timeout", toast.Message)
	assert.Len(t, store.Toasts(), 2)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	prefs := memory.NewPreferenceRepository()
	require.NoError(t, prefs.Set(ctx, "u1", repository.KeyTheme, "system"))

	reg := NewRegistry(prefs, Config{}, nil)
	first := reg.For(ctx, "u1")
	assert.Same(t, first, reg.For(ctx, "u1"))
	assert.Equal(t, ThemeSystem, first.Snapshot().Theme)
	assert.NotSame(t, first, reg.For(ctx, "u2"))

	reg.Drop("u1")
	assert.NotSame(t, first, reg.For(ctx, "u1"))
}
