//go:build windows

package datadir

import "os"

func platformDataDir() (string, error) {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return appData, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return home, nil
}
