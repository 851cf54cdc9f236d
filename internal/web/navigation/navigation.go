// Package navigation maps roles to the menu sections they see. The mapping
// is advisory, for rendering only; every privileged route is still enforced
// server-side regardless of what the menu shows.
package navigation

import "github.com/vendahub/vendahub/internal/rbac"

// Item is a single rendered menu entry.
type Item struct {
	Page  string `json:"page"`
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

// sectionMeta holds the icon and label for each known page id. Pages in a
// role's list without meta are skipped, not rendered raw.
var sectionMeta = map[string]Item{
	"dashboard":         {Page: "dashboard", Icon: "fas fa-home", Label: "Dashboard"},
	"academia":          {Page: "academia", Icon: "fas fa-graduation-cap", Label: "Academia"},
	"gamificacao":       {Page: "gamificacao", Icon: "fas fa-gamepad", Label: "Gamificação"},
	"crm":               {Page: "crm", Icon: "fas fa-briefcase", Label: "CRM & Vendas"},
	"mr-representacoes": {Page: "mr-representacoes", Icon: "fas fa-user-tie", Label: "MR Representações"},
	"perfil":            {Page: "perfil", Icon: "fas fa-user", Label: "Perfil"},
	"admin":             {Page: "admin", Icon: "fas fa-cog", Label: "Admin"},
}

// navConfig lists the page ids each role sees, in render order.
var navConfig = map[rbac.Role][]string{
	rbac.RoleSuperAdmin:       {"dashboard", "academia", "gamificacao", "crm", "mr-representacoes", "perfil", "admin"},
	rbac.RoleAdminOperacional: {"dashboard", "academia", "gamificacao", "crm", "perfil", "admin"},
	rbac.RoleAdminConteudo:    {"dashboard", "academia", "perfil", "admin"},
	rbac.RoleAdminGamificacao: {"dashboard", "academia", "gamificacao", "perfil", "admin"},
	rbac.RoleUserSDR:          {"dashboard", "academia", "crm", "perfil", "gamificacao"},
	rbac.RoleUserVendedor:     {"dashboard", "crm", "perfil", "gamificacao"},
	rbac.RoleMRResponsavel:    {"dashboard", "academia", "perfil"},
	rbac.RoleUser:             {"dashboard", "perfil"},
}

// MenuFor returns the menu items for a role, in order. Unknown roles fall
// back to the USER menu, never to an empty one.
func MenuFor(role rbac.Role) []Item {
	pages, ok := navConfig[role]
	if !ok {
		pages = navConfig[rbac.RoleUser]
	}

	items := make([]Item, 0, len(pages))

	for _, page := range pages {
		meta, ok := sectionMeta[page]
		if !ok {
			continue
		}

		items = append(items, meta)
	}

	return items
}

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	PageTitle     string
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
	}
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}
