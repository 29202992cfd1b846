package model

// Role codes as constants
const (
	RoleAdmin        = "ADMIN"
	RoleSiteEngineer = "SITE_ENGINEER"
	RoleViewer       = "VIEWER"
)

// Privilege codes checked by the HTTP middleware
const (
	PrivSiteView          = "site:view"
	PrivSiteManage        = "site:manage"
	PrivStockView         = "stock:view"
	PrivTransactionView   = "transaction:view"
	PrivTransactionCreate = "transaction:create"
	PrivTransactionDelete = "transaction:delete"
	PrivReportView        = "report:view"
	PrivReportExport      = "report:export"
	PrivDashboardView     = "dashboard:view"
)

// RolePrivileges maps each role to what it may do.
// Only ADMIN can delete transactions or manage sites.
var RolePrivileges = map[string][]string{
	RoleAdmin: {
		PrivSiteView, PrivSiteManage, PrivStockView,
		PrivTransactionView, PrivTransactionCreate, PrivTransactionDelete,
		PrivReportView, PrivReportExport, PrivDashboardView,
	},
	RoleSiteEngineer: {
		PrivSiteView, PrivStockView,
		PrivTransactionView, PrivTransactionCreate,
		PrivReportView, PrivReportExport, PrivDashboardView,
	},
	RoleViewer: {
		PrivSiteView, PrivStockView, PrivTransactionView, PrivReportView, PrivDashboardView,
	},
}

func ValidRole(code string) bool {
	_, ok := RolePrivileges[code]
	return ok
}
