// Command icongen writes the application icon as PNG files for packaging.
package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"spotlight/internal/assets"
)

func main() {
	var (
		dir  string
		size int
	)
	cmd := &cobra.Command{
		Use:   "icongen",
		Short: "Render the tray and app icons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if size <= 0 {
				return fmt.Errorf("size must be positive, got %d", size)
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			img := assets.Render(size)
			for _, name := range []string{"tray.png", "app.png"} {
				if err := savePNG(filepath.Join(dir, name), img); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "out", filepath.Join("assets", "icons"), "output directory")
	cmd.Flags().IntVar(&size, "size", 256, "icon edge in pixels")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
