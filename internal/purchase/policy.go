package purchase

// GrantPolicy decides how a new purchase obtains access to its files.
type GrantPolicy string

const (
	// UnverifiedInstantGrant completes the purchase at creation on the
	// client's word that payment succeeded. Nothing on the server verifies
	// the payment, so only catalog files are granted: a file list sent by the
	// client is dropped.
	UnverifiedInstantGrant GrantPolicy = "unverified-instant"
	// VerifiedManualGrant leaves the purchase pending until an admin has
	// checked the payment off-band and approves it.
	VerifiedManualGrant GrantPolicy = "verified-manual"
)

// InitialStatus is the status a purchase is created with.
func (g GrantPolicy) InitialStatus() Status {
	if g == UnverifiedInstantGrant {
		return StatusCompleted
	}
	return StatusPending
}

// AcceptsClientFiles reports whether a client supplied file list may become
// the grant of a purchase without a catalog product. Only policies with an
// admin in the loop accept it.
func (g GrantPolicy) AcceptsClientFiles() bool {
	return g == VerifiedManualGrant
}

// Policies maps payment methods onto grant policies.
type Policies struct {
	PayPalInstantGrant bool
}

func (p Policies) For(m Method) GrantPolicy {
	if m == MethodPayPal && p.PayPalInstantGrant {
		return UnverifiedInstantGrant
	}
	return VerifiedManualGrant
}
