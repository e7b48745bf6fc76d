package internal

import "time"

/* ===================== ROLES ===================== */

const (
	RoleAthlete    = "athlete"
	RoleClient     = "client"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

/* ===================== IDENTITY / PROFILES ===================== */

const (
	IdentityActive  = "active"
	IdentityRevoked = "revoked"
)

type Identity struct {
	ID              int        `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	EmailVerifiedAt *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"-"`
}

type AthleteProfile struct {
	IdentityID      int    `json:"identity_id"`
	Sport           string `json:"sport"`
	Position        string `json:"position"`
	ExperienceYears *int   `json:"experience_years"`
	HeightCM        *int   `json:"height_cm"`
	WeightKG        *int   `json:"weight_kg"`
	Bio             string `json:"bio"`
}

type OrgProfile struct {
	IdentityID int    `json:"identity_id"`
	OrgName    string `json:"org_name"`
	Title      string `json:"title"`
	Website    string `json:"website"`
}

/* ===================== LISTINGS ===================== */

const (
	ListingDraft   = "draft"
	ListingPending = "pending"
	ListingActive  = "active"
	ListingClosed  = "closed"
)

type Listing struct {
	ID               int        `json:"id"`
	OrgID            int        `json:"org_id"`
	Title            string     `json:"title"`
	Sport            string     `json:"sport"`
	Description      string     `json:"description"`
	Requirements     []string   `json:"requirements"`
	Status           string     `json:"status"`
	ApplicationCount int        `json:"application_count"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	CreatedAt        time.Time  `json:"-"`
}

// closed is terminal; admins may force any non-terminal listing to closed.
var listingTransitions = map[string]map[string]bool{
	ListingDraft:   {ListingPending: true, ListingClosed: true},
	ListingPending: {ListingActive: true, ListingClosed: true},
	ListingActive:  {ListingClosed: true},
	ListingClosed:  {},
}

func CanTransitionListing(from, to string) bool {
	return listingTransitions[from][to]
}

/* ===================== APPLICATIONS ===================== */

const (
	AppPending     = "pending"
	AppReviewing   = "reviewing"
	AppShortlisted = "shortlisted"
	AppInterviewed = "interviewed"
	AppAccepted    = "accepted"
	AppRejected    = "rejected"
	AppWithdrawn   = "withdrawn"
)

type Application struct {
	ID        int       `json:"id"`
	ListingID int       `json:"listing_id"`
	AthleteID int       `json:"athlete_id"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"-"`
}

func ApplicationTerminal(status string) bool {
	return status == AppAccepted || status == AppRejected || status == AppWithdrawn
}

// Organizations drive every transition except withdrawn, which belongs to
// the owning athlete.
var orgAppStatuses = map[string]bool{
	AppReviewing:   true,
	AppShortlisted: true,
	AppInterviewed: true,
	AppAccepted:    true,
	AppRejected:    true,
}

func CanTransitionApplication(from, to string) bool {
	if ApplicationTerminal(from) {
		return false
	}
	return orgAppStatuses[to]
}

func CanWithdrawApplication(from string) bool {
	return !ApplicationTerminal(from)
}

/* ===================== MESSAGES / DONATIONS ===================== */

type Message struct {
	ID         int       `json:"id"`
	SenderID   int       `json:"sender_id"`
	ReceiverID int       `json:"receiver_id"`
	ListingID  *int      `json:"listing_id,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"-"`
}

type Donation struct {
	ID         int       `json:"id"`
	SessionID  string    `json:"session_id"`
	IdentityID *int      `json:"identity_id,omitempty"`
	Email      string    `json:"email"`
	AmountCent int       `json:"amount_cents"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"-"`
}
