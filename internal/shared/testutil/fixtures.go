package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ScreenHeader is the minimal header of a raw screening table.
const ScreenHeader = "COMPOUND_ID,SMILES,POS_INT_REP1,POS_INT_REP2,POS_INT_REP3,ISOMERS"

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// WriteScreen writes a CSV with ScreenHeader followed by rows.
func WriteScreen(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()
	return WriteFile(t, dir, name, ScreenHeader+"\n"+strings.Join(rows, "\n")+"\n")
}
