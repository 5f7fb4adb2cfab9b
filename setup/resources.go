package setup

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gin-gonic/gin"
)

// Resource registers HTTP routes.
type Resource interface {
	Routes(r gin.IRouter)
}

// Provider contributes middleware to every resource route.
type Provider interface {
	Handler() gin.HandlerFunc
}

// ResourceConfig collects resource and provider registrations.
type ResourceConfig struct {
	mu        sync.Mutex
	instances []any
	types     []reflect.Type
}

// Register adds a ready-made resource or provider.
func (c *ResourceConfig) Register(instance any) {
	c.mu.Lock()
	c.instances = append(c.instances, instance)
	c.mu.Unlock()
}

// RegisterType adds a resource or provider type for the container to build.
func (c *ResourceConfig) RegisterType(t reflect.Type) {
	c.mu.Lock()
	c.types = append(c.types, t)
	c.mu.Unlock()
}

// Instances returns the registered instances in order.
func (c *ResourceConfig) Instances() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.instances...)
}

// Types returns the registered types in order.
func (c *ResourceConfig) Types() []reflect.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]reflect.Type(nil), c.types...)
}

// Container turns a resource config into routes.
type Container interface {
	Install(r gin.IRouter) error
}

// ContainerFactory creates the container for a resource config.
type ContainerFactory func(*ResourceConfig) Container

// ResourceEnvironment holds the resource config and the factory of the
// container that installs it.
type ResourceEnvironment struct {
	config *ResourceConfig

	mu      sync.RWMutex
	factory ContainerFactory
}

// NewResourceEnvironment creates a ResourceEnvironment with the default
// reflection container.
func NewResourceEnvironment() *ResourceEnvironment {
	return &ResourceEnvironment{
		config:  &ResourceConfig{},
		factory: NewReflectContainer,
	}
}

// Register adds a resource or provider instance.
func (e *ResourceEnvironment) Register(instance any) {
	e.config.Register(instance)
}

// RegisterType adds a resource or provider type.
func (e *ResourceEnvironment) RegisterType(t reflect.Type) {
	e.config.RegisterType(t)
}

// ResourceConfig returns the resource config.
func (e *ResourceEnvironment) ResourceConfig() *ResourceConfig { return e.config }

// Replace installs a new container factory.
func (e *ResourceEnvironment) Replace(factory ContainerFactory) {
	if factory == nil {
		return
	}
	e.mu.Lock()
	e.factory = factory
	e.mu.Unlock()
}

// Container creates the container for the current resource config.
func (e *ResourceEnvironment) Container() Container {
	e.mu.RLock()
	factory := e.factory
	e.mu.RUnlock()
	return factory(e.config)
}

type reflectContainer struct {
	config *ResourceConfig
}

// NewReflectContainer returns a container that builds registered types
// with reflect.New and leaves their fields zero.
func NewReflectContainer(config *ResourceConfig) Container {
	return &reflectContainer{config: config}
}

func (c *reflectContainer) Install(r gin.IRouter) error {
	objects := c.config.Instances()
	for _, t := range c.config.Types() {
		ptr, err := NewInstance(t)
		if err != nil {
			return err
		}
		objects = append(objects, ptr.Interface())
	}
	return InstallResources(r, objects)
}

// NewInstance allocates a zero value for a resource type. Struct types and
// pointers to structs both yield a pointer to a new struct.
func NewInstance(t reflect.Type) (reflect.Value, error) {
	if t == nil {
		return reflect.Value{}, fmt.Errorf("setup: nil resource type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("setup: resource type %s is not a struct", t)
	}
	return reflect.New(t), nil
}

// InstallResources adds provider middleware to r, then resource routes.
func InstallResources(r gin.IRouter, objects []any) error {
	var resources []Resource
	for _, obj := range objects {
		matched := false
		if p, ok := obj.(Provider); ok {
			r.Use(p.Handler())
			matched = true
		}
		if res, ok := obj.(Resource); ok {
			resources = append(resources, res)
			matched = true
		}
		if !matched {
			return fmt.Errorf("setup: %T is neither a Resource nor a Provider", obj)
		}
	}
	for _, res := range resources {
		res.Routes(r)
	}
	return nil
}
