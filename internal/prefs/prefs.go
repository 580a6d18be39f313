// Package prefs persists the local display name, the one piece of
// client-side state that survives restarts.
package prefs

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

type prefsFile struct {
	Name string `json:"name"`
}

// DefaultPath puts the prefs file under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "matchlobby", "prefs.json"), nil
}

// LoadName reads the stored display name, falling back to a randomized
// Player<4-digit> when the file is absent or unreadable. The fallback is
// not written back; it only persists once the user actually picks a name.
func LoadName(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return randomName()
	}
	var p prefsFile
	if err := json.Unmarshal(data, &p); err != nil || p.Name == "" {
		return randomName()
	}
	return p.Name
}

func SaveName(path, name string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(prefsFile{Name: name})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func randomName() string {
	return fmt.Sprintf("Player%d", 1000+rand.Intn(9000))
}
