package domain

const (
	DefaultRegistryURL             = "http://localhost:8080/api/mcp-servers"
	DefaultRefreshIntervalSeconds  = 3600
	MinRefreshIntervalSeconds      = 300
	DefaultFetchTimeoutSeconds     = 10
	DefaultExecuteTimeoutSeconds   = 30
	DefaultAdminListenAddress      = "127.0.0.1:8099"
	DefaultTelemetryListenAddress  = "0.0.0.0:9090"
	DefaultStorePath               = "data/servers.json"
	DefaultHistoryPath             = "data/history.db"
	DefaultHistoryRetainedRecords  = 1000
	DefaultDispatchRecentLimit     = 50
	DefaultStoreReloadDebounceMsec = 200
)
