package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ignite/edi-gateway/internal/pkg/logger"
)

// Registry indexes every mapping profile loaded at startup. It is built
// once by LoadDir and read-only thereafter, so concurrent lookups need no
// locking.
type Registry struct {
	profiles map[string]*Profile
}

// LoadDir scans dir for *.json profile files and builds the registry.
// A file that fails to decode is logged and skipped; the remaining
// profiles still load. A missing directory yields an empty registry.
func LoadDir(dir string) (*Registry, error) {
	reg := &Registry{profiles: make(map[string]*Profile)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("mappings directory not found, no profiles loaded", "dir", dir)
			return reg, nil
		}
		return nil, fmt.Errorf("scanning mappings directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		profile, err := loadProfile(path)
		if err != nil {
			logger.Error("failed to load mapping profile", "file", path, "error", err.Error())
			continue
		}
		key := buildKey(profile.RetailerID, profile.TransactionSetCode)
		reg.profiles[key] = profile
		logger.Info("loaded mapping profile",
			"key", key, "version", profile.Version, "file", entry.Name())
	}

	logger.Info("mapping registry initialized", "profiles", fmt.Sprintf("%d", len(reg.profiles)))
	return reg, nil
}

func loadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	if profile.RetailerID == "" || profile.TransactionSetCode == "" {
		return nil, fmt.Errorf("%s: retailerId and transactionSetCode are required", filepath.Base(path))
	}
	return &profile, nil
}

// Find looks up the profile for a retailer/transaction pair. The retailer
// id is upper-cased before probing, so lookups are case-insensitive.
func (r *Registry) Find(retailerID, transactionSetCode string) (*Profile, bool) {
	p, ok := r.profiles[buildKey(retailerID, transactionSetCode)]
	return p, ok
}

// Keys returns the sorted registry keys, for health and info endpoints.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.profiles))
	for k := range r.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns every loaded profile keyed by "{RETAILER}:{TXN_CODE}".
func (r *Registry) All() map[string]*Profile {
	out := make(map[string]*Profile, len(r.profiles))
	for k, v := range r.profiles {
		out[k] = v
	}
	return out
}

func buildKey(retailerID, transactionSetCode string) string {
	return strings.ToUpper(retailerID) + ":" + transactionSetCode
}
