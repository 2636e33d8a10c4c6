package permissions

// Permission keys checked by the admin routes
const (
	PersonList      = "person.list"
	PersonEdit      = "person.edit"
	PersonDelete    = "person.delete"
	OrderList       = "order.list"
	OrderApprove    = "order.approve"
	InventoryEdit   = "inventory.edit"
	MealLogView     = "meals.view"
	AssistantUse    = "assistant.use"
	RegistryImport  = "registry.import"
	PermissionsView = "permissions.view"
	AdminManage     = "admin.manage"
)

// PermissionDefinition describes a single, specific permission
type PermissionDefinition struct {
	Key         string `json:"key"`         // unique key, e.g., "order.approve"
	Name        string `json:"name"`        // friendly name, e.g., "Approve Orders"
	Description string `json:"description"` // what the permission allows
}

// PermissionGroupDefinition groups related permissions
type PermissionGroupDefinition struct {
	Key         string                 `json:"key"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Permissions []PermissionDefinition `json:"permissions"`
}

// DefinedPermissionGroups holds all statically defined permission groups and their permissions
var DefinedPermissionGroups = []PermissionGroupDefinition{
	{
		Key:         "person",
		Name:        "Registry",
		Description: "Viewing and maintaining the attendee registry.",
		Permissions: []PermissionDefinition{
			{Key: PersonList, Name: "List People", Description: "Allows viewing the registry and allowance counters."},
			{Key: PersonEdit, Name: "Edit Person", Description: "Allows editing names, event flags and remaining allowances."},
			{Key: PersonDelete, Name: "Delete Person", Description: "Allows removing a person and their history."},
			{Key: RegistryImport, Name: "Import Registry", Description: "Allows importing delegates from event CSV exports."},
		},
	},
	{
		Key:         "order",
		Name:        "Drink Orders",
		Description: "The drink approval queue.",
		Permissions: []PermissionDefinition{
			{Key: OrderList, Name: "List Orders", Description: "Allows viewing pending and recent drink orders."},
			{Key: OrderApprove, Name: "Approve Orders", Description: "Allows approving or denying pending drink orders."},
		},
	},
	{
		Key:         "inventory",
		Name:        "Drink Inventory",
		Description: "The drink catalog and stock levels.",
		Permissions: []PermissionDefinition{
			{Key: InventoryEdit, Name: "Edit Inventory", Description: "Allows adding, renaming, restocking and deleting drinks."},
		},
	},
	{
		Key:         "meals",
		Name:        "Meal Logs",
		Description: "Recorded lunch, dinner and drink consumption.",
		Permissions: []PermissionDefinition{
			{Key: MealLogView, Name: "View Meal Logs", Description: "Allows viewing the consumption log."},
		},
	},
	{
		Key:         "assistant",
		Name:        "Admin Assistant",
		Description: "The data-aware chat assistant.",
		Permissions: []PermissionDefinition{
			{Key: AssistantUse, Name: "Use Assistant", Description: "Allows chatting with the assistant about registry data."},
		},
	},
	{
		Key:  "system",
		Name: "System",
		Permissions: []PermissionDefinition{
			{Key: PermissionsView, Name: "View Permissions", Description: "Allows listing the permission catalog."},
			{Key: AdminManage, Name: "Manage Admins", Description: "Allows creating admin accounts and changing their permissions."},
		},
	},
}

var (
	allPermissionKeysMap map[string]PermissionDefinition
	allPermissionKeys    []string
)

func init() {
	allPermissionKeysMap = make(map[string]PermissionDefinition)
	for _, group := range DefinedPermissionGroups {
		for _, perm := range group.Permissions {
			allPermissionKeysMap[perm.Key] = perm
			allPermissionKeys = append(allPermissionKeys, perm.Key)
		}
	}
}

// GetAllPermissionKeys returns a slice of all unique permission string keys
func GetAllPermissionKeys() []string {
	keys := make([]string, len(allPermissionKeys))
	copy(keys, allPermissionKeys)
	return keys
}

// IsValidPermissionKey checks if a given permission key is defined
func IsValidPermissionKey(key string) bool {
	_, ok := allPermissionKeysMap[key]
	return ok
}
