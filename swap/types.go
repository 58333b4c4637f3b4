// Package swap implements the two-party MWC/BTC atomic swap state machine:
// slate versioning, the 2-of-2 multisig builder, the Swap ledger, and the
// Seller/Buyer role APIs that drive it forward message by message.
package swap

import "github.com/mwcproject/mwc-swap/swaperr"

// Role identifies which side of the swap a party is playing.
type Role int

const (
	// RoleSeller sells MWC for BTC. Always participant index 0.
	RoleSeller Role = iota
	// RoleBuyer buys MWC with BTC. Always participant index 1.
	RoleBuyer
)

func (r Role) String() string {
	if r == RoleSeller {
		return "seller"
	}
	return "buyer"
}

// ParseRole parses the wire form written by Role.String.
func ParseRole(s string) (Role, error) {
	switch s {
	case "seller":
		return RoleSeller, nil
	case "buyer":
		return RoleBuyer, nil
	default:
		return 0, swaperr.InvalidData("unknown role %q", s)
	}
}

// Status enumerates the shared states of the swap DAG (spec.md §4.3).
type Status int

const (
	StatusCreated Status = iota
	StatusOffered
	StatusAccepted
	StatusLocked
	StatusInitRedeem
	StatusRedeem
	StatusCompleted
	StatusRefunded
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "Created"
	case StatusOffered:
		return "Offered"
	case StatusAccepted:
		return "Accepted"
	case StatusLocked:
		return "Locked"
	case StatusInitRedeem:
		return "InitRedeem"
	case StatusRedeem:
		return "Redeem"
	case StatusCompleted:
		return "Completed"
	case StatusRefunded:
		return "Refunded"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ParseStatus parses the wire form written by Status.String.
func ParseStatus(s string) (Status, error) {
	for st := StatusCreated; st <= StatusCancelled; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, swaperr.InvalidData("unknown status %q", s)
}

// Currency identifies the secondary-chain asset. BTC is the only variant
// implemented; the type leaves room for others (spec.md §9).
type Currency int

const (
	// CurrencyBtc is the only secondary currency currently implemented.
	CurrencyBtc Currency = iota
)

func (c Currency) String() string {
	switch c {
	case CurrencyBtc:
		return "BTC"
	default:
		return "unknown"
	}
}

// ParseCurrency parses the wire form written by Currency.String.
func ParseCurrency(s string) (Currency, error) {
	switch s {
	case "BTC":
		return CurrencyBtc, nil
	default:
		return 0, swaperr.InvalidData("unknown currency %q", s)
	}
}

// Action is what the Action Advisor (spec.md §4.6) tells a driver to do
// next for a given swap.
type Action int

const (
	ActionNone Action = iota
	ActionSendMessage
	ActionReceiveMessage
	ActionPublishTx
	ActionConfirmationRedeem
	ActionComplete
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionSendMessage:
		return "SendMessage"
	case ActionReceiveMessage:
		return "ReceiveMessage"
	case ActionPublishTx:
		return "PublishTx"
	case ActionConfirmationRedeem:
		return "ConfirmationRedeem"
	case ActionComplete:
		return "Complete"
	default:
		return "None"
	}
}

// ActionResult carries an Action plus the message number to send, when
// applicable.
type ActionResult struct {
	Action        Action
	MessageNumber int
}
