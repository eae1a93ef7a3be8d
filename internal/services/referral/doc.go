/*
Package referral computes and credits multi-level referral cashback.

When a buyer completes a purchase the service walks the buyer's upward
invitation chain (buyer -> inviter -> inviter's inviter ...) for at most
len(Config.LevelBasisPoints) links. For each link where both the inviter and
the account directly below it are BUSINESS accounts, the inviter's referral
balance is incremented by

	amount * LevelBasisPoints[level] / 10000

minor units, truncated toward zero. Ineligible links are skipped but the walk
still advances to the next inviter.

Usage:

	svc := referral.NewService(accountRepo, accountRepo, referral.DefaultConfig(), metrics, logger)
	result, err := svc.ComputeAndApplyCashback(ctx, 10000, buyerID)

Error Handling:

  - ErrInvalidArgument: the purchase amount is not positive
  - ErrNotFound: the buyer does not exist
  - ErrUnavailable: the directory or ledger failed; earlier credits stay applied
    unless Config.AtomicChain is set

A missing inviter, or an inviter already visited by the walk, ends the walk
without an error.

The computation is not idempotent: calling it twice for the same purchase
credits the chain twice.
*/
package referral
