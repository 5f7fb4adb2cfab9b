package autoconfig

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/injectkit/component"
	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/setup"
)

const thisPackage = "github.com/kbukum/injectkit/autoconfig"

type clock struct{ now string }

func newClock() *clock { return &clock{now: "noon"} }

type timeResource struct {
	clock *clock
}

func newTimeResource(c *clock) *timeResource { return &timeResource{clock: c} }

func (r *timeResource) Routes(router gin.IRouter) {
	router.GET("/time", func(c *gin.Context) { c.String(http.StatusOK, r.clock.now) })
}

type tracingProvider struct{}

func newTracingProvider() *tracingProvider { return &tracingProvider{} }

func (*tracingProvider) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Traced", "1")
		c.Next()
	}
}

type clockCheck struct{}

func newClockCheck() *clockCheck { return &clockCheck{} }

func (*clockCheck) Name() string                  { return "clock" }
func (*clockCheck) Check(ctx context.Context) error { return nil }

type flushTask struct{}

func newFlushTask() *flushTask { return &flushTask{} }

func (*flushTask) Name() string { return "flush" }
func (*flushTask) Execute(context.Context, map[string][]string, io.Writer) error {
	return nil
}

func newTicker() *component.Managed {
	return component.NewManaged("ticker", nil, nil)
}

type auditBundle struct {
	initialized bool
}

func newAuditBundle() *auditBundle { return &auditBundle{} }

func (b *auditBundle) Initialize(*setup.Bootstrap) error {
	b.initialized = true
	return nil
}

func (b *auditBundle) Run(*setup.Environment) error { return nil }

func init() {
	Register(newClock)
	Register(newTimeResource)
	Register(newTracingProvider)
	Register(newClockCheck)
	Register(newFlushTask)
	Register(newAuditBundle)
}

func newInjector(t *testing.T, a *AutoConfig) di.Injector {
	t.Helper()
	inj, err := di.New(di.StageDevelopment, []di.Module{a.Module()})
	if err != nil {
		t.Fatalf("di.New: %v", err)
	}
	return inj
}

func TestNewRequiresPackages(t *testing.T) {
	tests := []struct {
		name     string
		packages []string
	}{
		{"none", nil},
		{"blank", []string{"", "  "}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.packages...); !errors.Is(err, ErrNoPackages) {
				t.Errorf("expected ErrNoPackages, got %v", err)
			}
		})
	}
}

func TestNewScansPackage(t *testing.T) {
	a, err := New(thisPackage + "/")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(a.Types()); got != 6 {
		t.Errorf("expected 6 matches, got %d: %v", got, a.Types())
	}
	if a.Packages()[0] != thisPackage {
		t.Errorf("expected trailing slash trimmed, got %q", a.Packages()[0])
	}

	other, err := New("github.com/example/unrelated")
	if err != nil {
		t.Fatal(err)
	}
	if len(other.Types()) != 0 {
		t.Errorf("expected no matches, got %v", other.Types())
	}
}

func TestInPackages(t *testing.T) {
	tests := []struct {
		pkg  string
		want bool
	}{
		{"example.com/app", true},
		{"example.com/app/users", true},
		{"example.com/application", false},
		{"example.com", false},
	}
	for _, tc := range tests {
		t.Run(tc.pkg, func(t *testing.T) {
			if got := inPackages(tc.pkg, []string{"example.com/app"}); got != tc.want {
				t.Errorf("inPackages(%q) = %v, want %v", tc.pkg, got, tc.want)
			}
		})
	}
}

func TestPackageOf(t *testing.T) {
	if got := packageOf(reflect.TypeOf(&timeResource{})); got != thisPackage {
		t.Errorf("expected %s, got %s", thisPackage, got)
	}
	if got := packageOf(reflect.TypeOf(0)); got != "" {
		t.Errorf("expected builtin to have no package, got %q", got)
	}
}

func TestRegisterPanicsOnNonConstructor(t *testing.T) {
	tests := []struct {
		name string
		arg  any
	}{
		{"nil", nil},
		{"value", 42},
		{"no result", func() {}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			Register(tc.arg)
		})
	}
}

func TestInitializeAddsBundles(t *testing.T) {
	a, err := New(thisPackage)
	if err != nil {
		t.Fatal(err)
	}
	inj := newInjector(t, a)
	bs := setup.NewBootstrap("test", logger.Nop())

	if err := a.Initialize(bs, inj); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	bundles := bs.Bundles()
	if len(bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundles))
	}
	b, ok := bundles[0].(*auditBundle)
	if !ok || !b.initialized {
		t.Errorf("expected initialized *auditBundle, got %#v", bundles[0])
	}
}

func TestRunRegistersWithEnvironment(t *testing.T) {
	a, err := New(thisPackage)
	if err != nil {
		t.Fatal(err)
	}
	inj := newInjector(t, a)
	env := setup.NewEnvironment("test", setup.WithLogger(logger.Nop()))

	if err := a.Run(env, inj); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := env.Admin().Task("flush"); !ok {
		t.Error("expected flush task")
	}
	if names := env.HealthChecks().Names(); len(names) != 1 || names[0] != "clock" {
		t.Errorf("unexpected health checks %v", names)
	}
	if got := env.Resources().ResourceConfig().Instances(); len(got) != 1 {
		t.Errorf("expected the provider instance, got %v", got)
	}
	types := env.Resources().ResourceConfig().Types()
	if len(types) != 1 || types[0] != reflect.TypeOf(&timeResource{}) {
		t.Errorf("expected *timeResource type, got %v", types)
	}
}

func TestRunRegistersComponents(t *testing.T) {
	Register(newTicker)
	defer func() {
		mu.Lock()
		registry = registry[:len(registry)-1]
		mu.Unlock()
	}()

	a, err := New("github.com/kbukum/injectkit/component")
	if err != nil {
		t.Fatal(err)
	}
	inj := newInjector(t, a)
	env := setup.NewEnvironment("test", setup.WithLogger(logger.Nop()))
	if err := a.Run(env, inj); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if env.Lifecycle().Get("ticker") == nil {
		t.Error("expected ticker to be managed")
	}
}

func TestResourcesResolveThroughContainer(t *testing.T) {
	a, err := New(thisPackage)
	if err != nil {
		t.Fatal(err)
	}
	inj := newInjector(t, a)
	env := setup.NewEnvironment("test", setup.WithLogger(logger.Nop()))
	env.Resources().Replace(func(cfg *setup.ResourceConfig) setup.Container {
		return resolvingContainer{cfg: cfg, inj: inj}
	})
	if err := a.Run(env, inj); err != nil {
		t.Fatal(err)
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	if err := env.Resources().Container().Install(engine); err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/time", nil))
	if w.Body.String() != "noon" {
		t.Errorf("expected injected clock, got %q", w.Body.String())
	}
	if w.Header().Get("X-Traced") != "1" {
		t.Error("expected provider middleware")
	}
}

type resolvingContainer struct {
	cfg *setup.ResourceConfig
	inj di.Injector
}

func (c resolvingContainer) Install(r gin.IRouter) error {
	objects := c.cfg.Instances()
	for _, t := range c.cfg.Types() {
		v, err := c.inj.Resolve(di.Key{Type: t})
		if err != nil {
			return err
		}
		objects = append(objects, v)
	}
	return setup.InstallResources(r, objects)
}

func TestRunPropagatesResolutionErrors(t *testing.T) {
	a, err := New(thisPackage)
	if err != nil {
		t.Fatal(err)
	}
	// An injector without the autoconfig module cannot resolve anything.
	inj, err := di.New(di.StageDevelopment, []di.Module{di.ModuleFunc(func(*di.Binder) error { return nil })})
	if err != nil {
		t.Fatal(err)
	}
	env := setup.NewEnvironment("test", setup.WithLogger(logger.Nop()))
	if err := a.Run(env, inj); !errors.Is(err, di.ErrNotBound) {
		t.Errorf("expected ErrNotBound, got %v", err)
	}
}
