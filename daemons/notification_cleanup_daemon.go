// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package daemons

import (
	"log/slog"
)

// CleanupNotifications deletes notifications that are both read and older
// than the retention cutoff. Unread notifications survive regardless of age.
func (runner *DaemonRunner) CleanupNotifications() error {
	count, err := runner.notificationService.Cleanup(notificationRetentionDays)
	if err != nil {
		return err
	}
	if count > 0 {
		slog.Info("deleted old notifications", "count", count)
	} else {
		slog.Info("no old notifications to delete")
	}
	return nil
}
