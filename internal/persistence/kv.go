package persistence

// Well-known slots. TenantKey is the only piece of tenant state allowed to
// outlive the in-memory stores.
const (
	SlotTenantKey   = "tenantId"
	SlotUserProfile = "userProfile"
	SlotSession     = "session"
)

// KV is the durable key-value slot the stores persist through. Absence is a
// valid value everywhere: Get returns ("", false) for a missing key, never an
// error for that case.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}
