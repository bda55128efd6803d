package services

import "github.com/lh20005/geo-xi-tong-sub000/repositories"

type Container struct {
	Usage       UsageService
	Quota       QuotaService
	Alert       AlertService
	History     HistoryService
	Reconcile   ReconcileService
	Maintenance MaintenanceService
}

func NewContainer(repos repositories.Container, notifier Notifier) *Container {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}

	alert := NewAlertService(repos.Accounts, repos.Alerts, notifier)
	history := NewHistoryService(repos.Accounts, repos.Snapshots)

	return &Container{
		Usage:       NewUsageService(repos.TxManager, repos.Accounts, repos.Transactions, repos.UsageCache, alert, notifier),
		Quota:       NewQuotaService(repos.Accounts, repos.UsageCache, notifier),
		Alert:       alert,
		History:     history,
		Reconcile:   NewReconcileService(repos.Accounts, repos.Resources),
		Maintenance: NewMaintenanceService(history, repos.Alerts, repos.Snapshots),
	}
}
