package swap

// ChainObservations bundles the fresh chain reads the Action Advisor needs:
// the current MWC tip and whether/when the redeem kernel has been seen.
// Gathering these is the outer driver's job; the advisor itself performs no
// I/O (spec.md §4.6, §5).
type ChainObservations struct {
	Tip               uint64
	RedeemKernelFound bool
	RedeemKernelAt    uint64
}

// Advise returns what a driver must do next for swap, given fresh chain
// observations. It is a pure function of state plus obs, with one
// documented exception: whenever obs reports the redeem kernel found, it
// sets Confirmations.MwcRedeem from obs, so repeating the same
// observations yields the same count (spec.md §4.6).
func Advise(swap *Swap, obs ChainObservations) ActionResult {
	switch swap.Status {
	case StatusCreated:
		return ActionResult{Action: ActionSendMessage, MessageNumber: 1}

	case StatusOffered:
		if swap.Role == RoleSeller {
			return ActionResult{Action: ActionReceiveMessage}
		}
		return ActionResult{Action: ActionSendMessage, MessageNumber: 1}

	case StatusAccepted:
		return ActionResult{Action: ActionNone}

	case StatusLocked:
		if swap.Role == RoleSeller {
			return ActionResult{Action: ActionReceiveMessage}
		}
		return ActionResult{Action: ActionSendMessage, MessageNumber: 2}

	case StatusInitRedeem:
		if swap.Role == RoleSeller {
			return ActionResult{Action: ActionSendMessage, MessageNumber: 2}
		}
		return ActionResult{Action: ActionReceiveMessage}

	case StatusRedeem:
		if swap.Role == RoleBuyer && swap.Confirmations.MwcRedeem == nil {
			return ActionResult{Action: ActionPublishTx}
		}
		if obs.RedeemKernelFound {
			confirmations := obs.Tip - obs.RedeemKernelAt + 1
			if obs.Tip < obs.RedeemKernelAt {
				confirmations = 1
			}
			swap.Confirmations.MwcRedeem = &confirmations
			return ActionResult{Action: ActionComplete}
		}
		return ActionResult{Action: ActionConfirmationRedeem}

	case StatusCompleted, StatusRefunded, StatusCancelled:
		return ActionResult{Action: ActionNone}

	default:
		return ActionResult{Action: ActionNone}
	}
}

// AdviseRefund reports whether swap's refund path has opened: the refund
// slate's lock height has been reached and the counterparty has not
// completed the swap (spec.md §4.3's "any locked state -> Refunded").
func AdviseRefund(swap *Swap, tip uint64) bool {
	if swap.RefundSlate == nil {
		return false
	}
	switch swap.Status {
	case StatusAccepted, StatusLocked, StatusInitRedeem, StatusRedeem:
		return tip >= swap.RefundSlate.LockHeight
	default:
		return false
	}
}
