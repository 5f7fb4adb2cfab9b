package di

// Stage controls how much work an injector does when it is created.
type Stage int

const (
	// StageProduction validates all bindings and eagerly builds singletons.
	StageProduction Stage = iota
	// StageDevelopment validates all bindings and builds singletons on first use.
	StageDevelopment
	// StageTool skips validation and construction; useful for inspecting modules.
	StageTool
)

// String returns the human-readable name of the stage.
func (s Stage) String() string {
	switch s {
	case StageProduction:
		return "production"
	case StageDevelopment:
		return "development"
	case StageTool:
		return "tool"
	default:
		return "unknown"
	}
}

// Scope controls how many instances a binding produces.
type Scope int

const (
	// Singleton bindings are built once per injector.
	Singleton Scope = iota
	// Unscoped bindings are built on every resolution.
	Unscoped
	// RequestScoped bindings are built once per RequestScope.
	RequestScoped
)

// String returns the human-readable name of the scope.
func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case Unscoped:
		return "unscoped"
	case RequestScoped:
		return "request"
	default:
		return "unknown"
	}
}
