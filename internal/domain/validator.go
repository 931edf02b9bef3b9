package domain

// ValidateDelegate checks a delegate that is being added to a cart. active is the
// number of non-cancelled staged delegates including the one being added, so a cart
// accepts exactly max active delegates. The package check runs first: a delegate of
// another event is rejected whatever the cart's capacity.
func ValidateDelegate(max, active int, packageEventID, cartEventID string) error {
	if packageEventID != cartEventID {
		return ErrPackageEventMismatch
	}
	if active > max {
		return ErrDelegateCapacityExceeded
	}
	return nil
}
