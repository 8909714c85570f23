package files

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wms-platform/fulfillment-simulator/internal/domain"
)

// FinalPath is the inventory export of warehouse number
func FinalPath(dir string, number int) string {
	return filepath.Join(dir, fmt.Sprintf("final%d.csv", number))
}

// OrdersPath is the truck manifest export of warehouse number
func OrdersPath(dir string, number int) string {
	return filepath.Join(dir, fmt.Sprintf("orders%d.csv", number))
}

// WriteLines writes one line per entry, replacing the file
func WriteLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteResult writes final<N>.csv and orders<N>.csv into dir and returns
// their paths
func WriteResult(dir string, result *domain.RunResult) (final, orders string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	final = FinalPath(dir, result.Warehouse)
	if err := WriteLines(final, result.FinalInventory); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", final, err)
	}
	orders = OrdersPath(dir, result.Warehouse)
	if err := WriteLines(orders, result.OrderManifest); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", orders, err)
	}
	return final, orders, nil
}
