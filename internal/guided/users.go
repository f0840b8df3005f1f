package guided

import (
	"context"
	"strings"
	"sync"

	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/harunnryd/deskflow/internal/preview"
)

// UserDirectory resolves what the desk knows about a requester.
type UserDirectory interface {
	Lookup(ctx context.Context, userID string) (preview.UserContext, error)
}

// StaticDirectory answers from a fixed VIP list and per-user language
// preferences.
type StaticDirectory struct {
	mu        sync.RWMutex
	vip       map[string]struct{}
	languages map[string]string
}

func NewStaticDirectory(vipUsers []string) *StaticDirectory {
	d := &StaticDirectory{
		vip:       make(map[string]struct{}, len(vipUsers)),
		languages: make(map[string]string),
	}
	for _, u := range vipUsers {
		if u = strings.TrimSpace(u); u != "" {
			d.vip[u] = struct{}{}
		}
	}
	return d
}

// SetLanguage records the preferred language of userID. Unsupported codes
// fall back to the primary language.
func (d *StaticDirectory) SetLanguage(userID, lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang != catalog.LangSecondary {
		lang = catalog.LangPrimary
	}
	d.mu.Lock()
	d.languages[userID] = lang
	d.mu.Unlock()
}

func (d *StaticDirectory) Lookup(ctx context.Context, userID string) (preview.UserContext, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, vip := d.vip[userID]
	lang := d.languages[userID]
	if lang == "" {
		lang = catalog.LangPrimary
	}
	return preview.UserContext{UserID: userID, VIP: vip, Language: lang}, nil
}
