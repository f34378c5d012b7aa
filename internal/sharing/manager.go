// Package sharing manages time-bounded gallery share links. Each gallery
// is a small state machine — Disabled -> Shared (share) -> Shared
// (reschedule) -> Disabled (stop) — so the manager never sends a
// reschedule against a gallery with no active share, and a second share
// against an active gallery degrades to a reschedule instead of minting a
// new grant. Expiry windows are validated before any network call.
package sharing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/prooflab/prooflab-go/internal/api"
)

// maxShareWindow is the furthest a share expiry may lie in the future.
const maxShareWindow = 365 * 24 * time.Hour

// ErrNotShared is returned for reschedule/stop on a gallery whose sharing
// is disabled.
var ErrNotShared = errors.New("sharing: gallery is not shared")

// Backend is the slice of the gateway the manager needs.
type Backend interface {
	Gallery(ctx context.Context, galleryID string) (*api.Gallery, error)
	ShareGallery(ctx context.Context, galleryID string, expiry time.Time) (*api.ShareLink, error)
	RescheduleSharing(ctx context.Context, galleryID string, expiry time.Time) (*api.ShareLink, error)
	StopSharing(ctx context.Context, galleryID string) (*api.Gallery, error)
}

// state is the per-gallery sharing state known to this manager.
type state struct {
	shared bool
	link   api.ShareLink
}

// Manager tracks per-gallery sharing state and drives transitions through
// the backend. Safe for concurrent use: each gallery's check-then-transition
// runs under that gallery's own lock, so two racing Share calls cannot both
// observe Disabled and mint two links.
type Manager struct {
	backend Backend
	logger  *slog.Logger

	// now is the clock; tests override it.
	now func() time.Time

	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	statuses map[string]*state
}

// NewManager creates a Manager.
func NewManager(backend Backend, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		backend:  backend,
		logger:   logger,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
		statuses: make(map[string]*state),
	}
}

// galleryLock returns the mutex serializing transitions for one gallery.
func (m *Manager) galleryLock(galleryID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[galleryID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[galleryID] = l
	}

	return l
}

// validateExpiry enforces the share window: strictly in the future, at
// most one year ahead. Violations are reported before any network call.
func (m *Manager) validateExpiry(expiry time.Time) error {
	now := m.now()

	if !expiry.After(now) {
		return fmt.Errorf("%w: sharing expiry %s is not in the future", api.ErrValidation, expiry.Format(time.RFC3339))
	}

	if expiry.After(now.Add(maxShareWindow)) {
		return fmt.Errorf("%w: sharing expiry %s is more than one year ahead", api.ErrValidation, expiry.Format(time.RFC3339))
	}

	return nil
}

// Share issues a share link for the gallery. If the gallery already has an
// active share, the call is treated as a reschedule: the expiry moves and
// the existing access token is preserved. At most one share link is active
// per gallery.
func (m *Manager) Share(ctx context.Context, galleryID string, expiry time.Time) (*api.ShareLink, error) {
	if err := m.validateExpiry(expiry); err != nil {
		return nil, err
	}

	l := m.galleryLock(galleryID)
	l.Lock()
	defer l.Unlock()

	st, err := m.galleryState(ctx, galleryID)
	if err != nil {
		return nil, err
	}

	if st.shared {
		m.logger.Debug("gallery already shared, rescheduling instead",
			slog.String("gallery_id", galleryID),
		)

		return m.reschedule(ctx, galleryID, st, expiry)
	}

	link, err := m.backend.ShareGallery(ctx, galleryID, expiry)
	if err != nil {
		return nil, err
	}

	m.setState(galleryID, &state{shared: true, link: *link})

	m.logger.Info("gallery shared",
		slog.String("gallery_id", galleryID),
		slog.Time("expiry", link.SharingExpiry),
	)

	return link, nil
}

// Reschedule moves an active share link's expiry. The access token is
// unchanged; only the expiry moves. Fails with ErrNotShared when the
// gallery has no active share.
func (m *Manager) Reschedule(ctx context.Context, galleryID string, expiry time.Time) (*api.ShareLink, error) {
	if err := m.validateExpiry(expiry); err != nil {
		return nil, err
	}

	l := m.galleryLock(galleryID)
	l.Lock()
	defer l.Unlock()

	st, err := m.galleryState(ctx, galleryID)
	if err != nil {
		return nil, err
	}

	if !st.shared {
		return nil, fmt.Errorf("%w: %s", ErrNotShared, galleryID)
	}

	return m.reschedule(ctx, galleryID, st, expiry)
}

func (m *Manager) reschedule(ctx context.Context, galleryID string, prev *state, expiry time.Time) (*api.ShareLink, error) {
	link, err := m.backend.RescheduleSharing(ctx, galleryID, expiry)
	if err != nil {
		return nil, err
	}

	if prev.link.AccessToken != "" && link.AccessToken != prev.link.AccessToken {
		// The server contract is token preservation on reschedule; a new
		// token here would silently break links already sent to clients.
		m.logger.Warn("reschedule returned a different access token",
			slog.String("gallery_id", galleryID),
		)
	}

	m.setState(galleryID, &state{shared: true, link: *link})

	m.logger.Info("sharing rescheduled",
		slog.String("gallery_id", galleryID),
		slog.Time("expiry", link.SharingExpiry),
	)

	return link, nil
}

// Stop disables sharing. The previous access token stops working on the
// client access path immediately. Fails with ErrNotShared when sharing is
// already disabled.
func (m *Manager) Stop(ctx context.Context, galleryID string) error {
	l := m.galleryLock(galleryID)
	l.Lock()
	defer l.Unlock()

	st, err := m.galleryState(ctx, galleryID)
	if err != nil {
		return err
	}

	if !st.shared {
		return fmt.Errorf("%w: %s", ErrNotShared, galleryID)
	}

	if _, err := m.backend.StopSharing(ctx, galleryID); err != nil {
		return err
	}

	m.setState(galleryID, &state{})

	m.logger.Info("sharing stopped", slog.String("gallery_id", galleryID))

	return nil
}

// Active returns the current share link for a gallery, or ErrNotShared.
func (m *Manager) Active(ctx context.Context, galleryID string) (*api.ShareLink, error) {
	l := m.galleryLock(galleryID)
	l.Lock()
	defer l.Unlock()

	st, err := m.galleryState(ctx, galleryID)
	if err != nil {
		return nil, err
	}

	if !st.shared {
		return nil, fmt.Errorf("%w: %s", ErrNotShared, galleryID)
	}

	link := st.link

	return &link, nil
}

// galleryState returns the cached state for a gallery, seeding it from the
// backend's gallery record on first touch. A share whose expiry has
// already passed counts as disabled.
func (m *Manager) galleryState(ctx context.Context, galleryID string) (*state, error) {
	m.mu.Lock()
	if st, ok := m.statuses[galleryID]; ok {
		m.mu.Unlock()
		return st, nil
	}
	m.mu.Unlock()

	gallery, err := m.backend.Gallery(ctx, galleryID)
	if err != nil {
		return nil, err
	}

	st := &state{}
	if gallery.Sharing.SharingEnabled && gallery.Sharing.SharingExpiryDate.After(m.now()) {
		st.shared = true
		st.link = api.ShareLink{
			GalleryID:     gallery.ID,
			AccessToken:   gallery.Sharing.AccessToken,
			SharingExpiry: gallery.Sharing.SharingExpiryDate,
			ShareURL:      gallery.Sharing.SharingURL,
		}
	}

	m.setState(galleryID, st)

	return st, nil
}

func (m *Manager) setState(galleryID string, st *state) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statuses[galleryID] = st
}

// QRPNG renders a share URL as a PNG QR code, sized in pixels. Handed to
// clients who receive the gallery link on paper or a second screen.
func QRPNG(shareURL string, size int) ([]byte, error) {
	png, err := qrcode.Encode(shareURL, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("sharing: encoding QR code: %w", err)
	}

	return png, nil
}
