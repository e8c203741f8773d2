package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"quiz:view",
		"attempt:create",
		"attempt:submit",
		"attempt:view-own",
		"results:view-own",
		"announcements:view",
	},
	"examiner": {
		"exam:create",
		"quiz:create",
		"quiz:view",
		"quiz:view-keys",
		"attempt:view-all",
		"attempt:regrade",
		"results:view-all",
		"announcements:view",
	},
	"admin": {
		"*", // everything
	},
}
