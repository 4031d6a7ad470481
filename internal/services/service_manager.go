package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/cache"
)

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps *Dependencies

	// Service instances
	authService          AuthService
	impersonationService ImpersonationService
	userService          UserService
	masterDataService    MasterDataService
	moduleService        ModuleService
	translationService   TranslationService
	audioService         AudioService
	storageService       StorageService
	assignmentService    AssignmentService
	dashboardService     DashboardService
	reportService        ReportService
	auditService         AuditService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps *Dependencies) ServiceManager {
	if deps.Cache == nil {
		deps.Cache = cache.NewCacheManager(nil)
	}
	return &serviceManager{deps: deps}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.deps.Repo == nil || sm.deps.Hasher == nil || sm.deps.Cipher == nil || sm.deps.Logger == nil {
		return errors.New("service manager requires repository, hasher, cipher and logger")
	}

	sm.deps.Logger.Info("Initializing service manager")

	sm.authService = NewAuthService(sm.deps)
	sm.impersonationService = NewImpersonationService(sm.deps)
	sm.userService = NewUserService(sm.deps)
	sm.masterDataService = NewMasterDataService(sm.deps)
	sm.moduleService = NewModuleService(sm.deps)
	sm.translationService = NewTranslationService(sm.deps)
	sm.audioService = NewAudioService(sm.deps)
	sm.storageService = NewStorageService(sm.deps)
	sm.assignmentService = NewAssignmentService(sm.deps)
	sm.dashboardService = NewDashboardService(sm.deps)
	sm.reportService = NewReportService(sm.deps)
	sm.auditService = NewAuditService(sm.deps)

	if sm.deps.Translator == nil || sm.deps.Speech == nil {
		sm.deps.Logger.Warn("AI provider not configured; translation and audio generation are disabled")
	}
	if sm.deps.Store == nil {
		sm.deps.Logger.Warn("Object storage not configured; uploads and audio generation are disabled")
	}

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")
	return nil
}

func (sm *serviceManager) ready() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.authService
}

func (sm *serviceManager) Impersonation() ImpersonationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.impersonationService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.userService
}

func (sm *serviceManager) MasterData() MasterDataService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.masterDataService
}

func (sm *serviceManager) Module() ModuleService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.moduleService
}

func (sm *serviceManager) Translation() TranslationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.translationService
}

func (sm *serviceManager) Audio() AudioService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.audioService
}

func (sm *serviceManager) Storage() StorageService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.storageService
}

func (sm *serviceManager) Assignment() AssignmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.assignmentService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.dashboardService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.reportService
}

func (sm *serviceManager) Audit() AuditService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.auditService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	// The cache is optional; a miss falls through to the database
	if err := sm.deps.Cache.HealthCheck(ctx); err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
		sm.deps.Logger.Warn("Cache health check failed", "error", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	var err error
	if sm.audioService != nil {
		if err = sm.audioService.Shutdown(ctx); err != nil {
			sm.deps.Logger.Error("Audio jobs did not stop in time", "error", err)
		}
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")
	return err
}
