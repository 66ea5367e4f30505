package main

import (
	"k8s.io/klog/v2"

	"github.com/sbm9960-auto/koc-management/cmd/koc-server/helper"
)

func main() {
	// Initialize configuration
	configInit := helper.NewConfigInitializer()
	backendConfig := configInit.GetBackendConfig()

	// Load debug environment if needed
	if err := configInit.LoadDebugEnvironment(); err != nil {
		klog.Fatalf("Failed to load env: %s", err)
	}

	// Open the database, migrate and build handler dependencies
	registerConfig, err := configInit.InitializeRegisterConfig()
	if err != nil {
		klog.Fatalf("Failed to register config: %s\n", err)
	}

	serverRunner := helper.NewServerRunner(backendConfig)

	// Scheduled database snapshots
	if err := serverRunner.StartBackups(registerConfig); err != nil {
		klog.Fatalf("Failed to start backups: %s", err)
	}

	// Start HTTP server
	serverRunner.StartServer(registerConfig)
}
