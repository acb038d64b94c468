package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Mounter attaches a set of routes below a parent group
type Mounter interface {
	Mount(parent *gin.RouterGroup)
}

// Router collects resource groups and mounts them on the engine
type Router struct {
	engine     *gin.Engine
	apiVersion string
	mounters   []Mounter
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion mounts every group under /api/<version>. Without it the
// groups sit at the root, where the scanner clients call them.
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a Router for engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues m for Setup
func (r *Router) Register(m Mounter) *Router {
	r.mounters = append(r.mounters, m)
	return r
}

// Setup mounts every registered group
func (r *Router) Setup() {
	base := "/"
	if r.apiVersion != "" {
		base = path.Join("/api", r.apiVersion)
	}
	parent := r.engine.Group(base)
	for _, m := range r.mounters {
		m.Mount(parent)
	}
}

// ResourceGroup is the route table of one resource, such as /guardas.
// Routes are mounted in declaration order, which matters where a static
// segment shares its position with a path parameter.
type ResourceGroup struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	children   []*ResourceGroup
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewResourceGroup creates a group mounted at prefix
func NewResourceGroup(prefix string) *ResourceGroup {
	return &ResourceGroup{prefix: prefix}
}

// Use adds middleware run before every route of the group and its children
func (g *ResourceGroup) Use(middleware ...gin.HandlerFunc) *ResourceGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// GET adds a GET route
func (g *ResourceGroup) GET(p string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle(http.MethodGet, p, handlers)
}

// POST adds a POST route
func (g *ResourceGroup) POST(p string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle(http.MethodPost, p, handlers)
}

// PUT adds a PUT route
func (g *ResourceGroup) PUT(p string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle(http.MethodPut, p, handlers)
}

func (g *ResourceGroup) handle(method, p string, handlers []gin.HandlerFunc) *ResourceGroup {
	g.routes = append(g.routes, route{method: method, path: p, handlers: handlers})
	return g
}

// Child adds a nested group below this one and returns it
func (g *ResourceGroup) Child(prefix string) *ResourceGroup {
	child := NewResourceGroup(prefix)
	g.children = append(g.children, child)
	return child
}

// Mount implements Mounter
func (g *ResourceGroup) Mount(parent *gin.RouterGroup) {
	group := parent.Group(g.prefix, g.middleware...)
	for _, rt := range g.routes {
		group.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, child := range g.children {
		child.Mount(group)
	}
}
