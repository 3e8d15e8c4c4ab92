package rbac

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

type EnforceRequest struct {
	Role     string
	Resource string
	Action   string
}

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(req EnforceRequest) (bool, error)
}

type service struct {
	enforcer *casbin.Enforcer
}

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Organizational roles are fixed (employee, hr, dept_head, admin), so the
// policy is a static table rather than a per-tenant load.
var policies = [][]string{
	{"employee", "leave", "create"},
	{"employee", "leave", "read"},
	{"employee", "ledger", "read"},
	{"employee", "conversion", "create"},
	{"employee", "conversion", "read"},

	{"hr", "leave", "approve"},
	{"hr", "conversion", "approve"},

	{"dept_head", "leave", "approve"},
	{"dept_head", "conversion", "approve"},

	{"admin", "leave", "approve"},
	{"admin", "leave", "recall"},
	{"admin", "conversion", "approve"},
	{"admin", "delegation", "manage"},
	{"admin", "ledger", "adjust"},
	{"admin", "employee", "manage"},
}

// Every elevated role keeps the base employee permissions.
var groupings = [][]string{
	{"hr", "employee"},
	{"dept_head", "employee"},
	{"admin", "employee"},
}

func NewService() (Service, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, p := range policies {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, err
		}
	}
	for _, g := range groupings {
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, err
		}
	}

	return &service{enforcer: enforcer}, nil
}

func (s *service) Enforce(req EnforceRequest) (bool, error) {
	return s.enforcer.Enforce(req.Role, req.Resource, req.Action)
}
