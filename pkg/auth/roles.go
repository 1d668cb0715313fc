package auth

import "sort"

// ExtractRoles collects the realm roles and the roles of clientID from Keycloak style claims:
//
//	{"realm_access": {"roles": [...]}, "resource_access": {"<client>": {"roles": [...]}}}
func ExtractRoles(claims map[string]any, clientID string) []string {
	set := map[string]struct{}{}

	if realm, ok := claims["realm_access"].(map[string]any); ok {
		addRoles(set, realm["roles"])
	}
	if resources, ok := claims["resource_access"].(map[string]any); ok {
		if client, ok := resources[clientID].(map[string]any); ok {
			addRoles(set, client["roles"])
		}
	}

	roles := make([]string, 0, len(set))
	for r := range set {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

func addRoles(set map[string]struct{}, raw any) {
	switch v := raw.(type) {
	case []any:
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				set[s] = struct{}{}
			}
		}
	case []string:
		for _, s := range v {
			if s != "" {
				set[s] = struct{}{}
			}
		}
	}
}
