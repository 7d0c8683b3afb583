package store

// TransferRecord is one persisted submission. Rows are created exactly once
// at successful submit, never updated, and destroyed only by an explicit
// delete. Optional columns are pointers so absent values round-trip as NULL.
type TransferRecord struct {
	ID              int64   `db:"id"`
	ServiceKey      string  `db:"service_key"`
	ServiceLabel    string  `db:"service_label"`
	ProviderName    string  `db:"provider_name"`
	Amount          float64 `db:"amount"`
	AccountOrMSISDN *string `db:"account_or_msisdn"`
	FirstName       *string `db:"first_name"`
	LastName        *string `db:"last_name"`
	Gender          *string `db:"gender"`
	ProvinceState   *string `db:"province_state"`
	CreatedAt       int64   `db:"created_at"`
}
