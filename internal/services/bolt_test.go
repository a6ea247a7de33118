package services_test

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/cryptoai-assistant/web-ui/internal/services"
)

func TestBoltDBPreferences(t *testing.T) {
	db, err := services.NewBoltDB(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBoltDB() error = %v", err)
	}
	defer db.Close()

	prefs, err := db.Preferences()
	if err != nil {
		t.Fatalf("Preferences() error = %v", err)
	}
	if want := services.DefaultPreferences(); prefs.TopK != want.TopK ||
		prefs.Temperature != want.Temperature ||
		!slices.Equal(prefs.Collections, want.Collections) {
		t.Errorf("Preferences() = %+v, want defaults %+v", prefs, want)
	}

	prefs.TopK = 10
	prefs.Temperature = 0.7
	prefs.Collections = []string{"news"}
	if err := db.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences() error = %v", err)
	}

	got, err := db.Preferences()
	if err != nil {
		t.Fatalf("Preferences() error = %v", err)
	}
	if got.TopK != 10 || got.Temperature != 0.7 || !slices.Equal(got.Collections, []string{"news"}) {
		t.Errorf("Preferences() after save = %+v", got)
	}
}
