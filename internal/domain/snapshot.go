package domain

// Snapshot is the whole portal state: the raw shape loaded from storage and
// the derived shape the UI reads are the same type. The derive package turns
// any raw snapshot into a normalized one; mutations always operate on raw
// state and re-derive.
//
// JSON field names match the browser client's storage format so that
// snapshots written by either side stay interchangeable.
type Snapshot struct {
	CustomerProfile CustomerProfile `json:"customerProfile"`

	// ProviderSummary, ProviderOnline and ProviderSelectedSlots mirror the
	// first provider's setting for older single-provider screens.
	ProviderSummary       ProviderSummary `json:"providerProfile"`
	ProviderOnline        bool            `json:"providerOnline"`
	ProviderSlotOptions   []string        `json:"providerSlotOptions"`
	ProviderSelectedSlots []string        `json:"providerSelectedSlots"`

	ProviderSettings       map[string]ProviderSetting `json:"providerSettings"`
	ProviderQueue          []Provider                 `json:"providerQueue"`
	ProviderProfiles       []ProviderProfile          `json:"providerProfiles"`
	ProviderServiceCatalog []ProviderService          `json:"providerServiceCatalog"`

	Bookings        []Booking                   `json:"bookings"`
	BookingMessages map[string][]BookingMessage `json:"bookingMessages"`

	// CustomerBookings is the legacy simplified booking view, recomputed from
	// Bookings on every derive.
	CustomerBookings []LegacyBooking `json:"customerBookings"`

	UserVerificationQueue []VerificationEntry `json:"userVerificationQueue"`
	DisputeQueue          []Dispute           `json:"disputeQueue"`
	AdminProviderChat     []ChatMessage       `json:"adminProviderChat"`
	CustomerProviderChat  []ChatMessage       `json:"customerProviderChat"`
	AdminSettings         AdminSettings       `json:"adminSettings"`
}

// Provider is a verification-queue entry for a service provider: identity
// fields plus approval state. Docs and Tone are pure functions of Status and
// are recomputed on every derive.
type Provider struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Email               string         `json:"email"`
	Phone               string         `json:"phone"`
	Area                string         `json:"area"`
	Address             string         `json:"address"`
	ServiceType         string         `json:"serviceType"`
	IDProofType         string         `json:"idProofType"`
	IDProofDocumentName string         `json:"idProofDocumentName"`
	SelectedSlots       []string       `json:"selectedSlots"`
	SubmittedAt         Time           `json:"submittedAt"`
	Status              ProviderStatus `json:"status"`
	Docs                string         `json:"docs"`
	Tone                string         `json:"tone"`
}

// ProviderSetting holds a provider's own editable preferences, keyed by
// normalized email in Snapshot.ProviderSettings.
type ProviderSetting struct {
	DisplayName   string   `json:"displayName"`
	Category      string   `json:"category"`
	Radius        string   `json:"radius"`
	Availability  string   `json:"availability"`
	SelectedSlots []string `json:"selectedSlots"`
	Online        bool     `json:"online"`
	Location      string   `json:"location"`
}

// ProviderSummary is the legacy single-provider settings view.
type ProviderSummary struct {
	DisplayName  string `json:"displayName"`
	Category     string `json:"category"`
	Radius       string `json:"radius"`
	Availability string `json:"availability"`
}

// ProviderProfile is the customer-facing provider card: stats plus a
// verification label mirrored from the provider's approval status.
type ProviderProfile struct {
	ID            string  `json:"id"`
	ProviderEmail string  `json:"providerEmail"`
	Name          string  `json:"name"`
	Service       string  `json:"service"`
	Rating        float64 `json:"rating"`
	Reviews       int     `json:"reviews"`
	CompletedJobs int     `json:"completedJobs"`
	Verification  string  `json:"verification"`
	Tone          string  `json:"tone"`
	Location      string  `json:"location"`
}

// ProviderService is one row of a provider's service catalog, unique per
// (providerEmail, category, subcategory).
type ProviderService struct {
	ID               string  `json:"id"`
	ProviderEmail    string  `json:"providerEmail"`
	ProviderName     string  `json:"providerName"`
	ProviderLocation string  `json:"providerLocation"`
	Category         string  `json:"category"`
	Subcategory      string  `json:"subcategory"`
	Price            int     `json:"price"`
	Available        OptBool `json:"available"`
	CreatedAt        Time    `json:"createdAt"`
	UpdatedAt        Time    `json:"updatedAt"`
}

// Booking links a customer and a provider for one service at one slot.
type Booking struct {
	ID               string        `json:"id"`
	CustomerName     string        `json:"customerName"`
	CustomerEmail    string        `json:"customerEmail"`
	CustomerLocation string        `json:"customerLocation"`
	ProviderName     string        `json:"providerName"`
	ProviderEmail    string        `json:"providerEmail"`
	ProviderLocation string        `json:"providerLocation"`
	Category         string        `json:"category"`
	Subcategory      string        `json:"subcategory"`
	Price            int           `json:"price"`
	SelectedSlot     string        `json:"selectedSlot"`
	Status           BookingStatus `json:"status"`
	Tone             string        `json:"tone"`
	CreatedAt        Time          `json:"createdAt"`
	UpdatedAt        Time          `json:"updatedAt"`
}

// LegacyBooking is the simplified display shape older customer screens read.
type LegacyBooking struct {
	Title   string `json:"title"`
	Partner string `json:"partner"`
	Status  string `json:"status"`
	Tone    string `json:"tone"`
}

// BookingMessage is one message inside a booking's chat thread. Timestamp is
// a preformatted display string; CreatedAt is the machine timestamp (zero
// when unknown).
type BookingMessage struct {
	ID          string `json:"id"`
	From        string `json:"from"`
	Text        string `json:"text"`
	Timestamp   string `json:"timestamp"`
	SenderRole  string `json:"senderRole"`
	SenderEmail string `json:"senderEmail"`
	CreatedAt   Time   `json:"createdAt"`
}

// ChatMessage is one entry of the flat admin-provider or customer-provider
// chat logs, which are not booking-scoped.
type ChatMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	CreatedAt Time   `json:"createdAt"`
}

// VerificationEntry is one row of the admin verification queue. Provider rows
// are regenerated from the provider queue on every derive; other rows pass
// through with defaults filled.
type VerificationEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Document string `json:"document"`
	Status   string `json:"status"`
	Tone     string `json:"tone"`
}

// Dispute is an admin-managed support ticket, intentionally decoupled from
// provider and booking referential integrity.
type Dispute struct {
	ID       string `json:"id"`
	Ticket   string `json:"ticket"`
	Customer string `json:"customer"`
	Provider string `json:"provider"`
	Issue    string `json:"issue"`
	Status   string `json:"status"`
	Tone     string `json:"tone"`
}

// CustomerProfile is the singleton customer record.
type CustomerProfile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// AdminSettings is the singleton admin configuration record.
type AdminSettings struct {
	AutoApproveCustomers string `json:"autoApproveCustomers"`
	VerificationSLA      string `json:"verificationSla"`
	DisputeSLA           string `json:"disputeSla"`
	IncidentEmail        string `json:"incidentEmail"`
}

// DefaultAdminSettings returns the seeded admin configuration.
func DefaultAdminSettings() AdminSettings {
	return AdminSettings{
		AutoApproveCustomers: "Enabled",
		VerificationSLA:      "24 hours",
		DisputeSLA:           "48 hours",
		IncidentEmail:        "admin@fixitnow.com",
	}
}
