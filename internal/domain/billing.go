package domain

// BillingPlaceholder fills the billing block of free-of-charge bookings.
const BillingPlaceholder = "XXX"

type contactField struct {
	name  string
	field func(*ContactDetails) *string
}

type billingField struct {
	name  string
	field func(*BillingDetails) *string
}

var contactFields = []contactField{
	{"title", func(c *ContactDetails) *string { return &c.Title }},
	{"forename", func(c *ContactDetails) *string { return &c.Forename }},
	{"surname", func(c *ContactDetails) *string { return &c.Surname }},
	{"organisation", func(c *ContactDetails) *string { return &c.Organisation }},
	{"job_title", func(c *ContactDetails) *string { return &c.JobTitle }},
	{"address_line_1", func(c *ContactDetails) *string { return &c.Address[0] }},
	{"address_line_2", func(c *ContactDetails) *string { return &c.Address[1] }},
	{"address_line_3", func(c *ContactDetails) *string { return &c.Address[2] }},
	{"address_line_4", func(c *ContactDetails) *string { return &c.Address[3] }},
	{"address_line_5", func(c *ContactDetails) *string { return &c.Address[4] }},
	{"postcode", func(c *ContactDetails) *string { return &c.Postcode }},
	{"country", func(c *ContactDetails) *string { return &c.Country }},
	{"tel", func(c *ContactDetails) *string { return &c.Tel }},
	{"fax", func(c *ContactDetails) *string { return &c.Fax }},
	{"email", func(c *ContactDetails) *string { return &c.Email }},
}

// billingFields doubles as the column list shared by bookings and receipts.
var billingFields = []billingField{
	{"bill_contact", func(b *BillingDetails) *string { return &b.Contact }},
	{"bill_organisation", func(b *BillingDetails) *string { return &b.Organisation }},
	{"bill_job_title", func(b *BillingDetails) *string { return &b.JobTitle }},
	{"bill_address_line_1", func(b *BillingDetails) *string { return &b.Address[0] }},
	{"bill_address_line_2", func(b *BillingDetails) *string { return &b.Address[1] }},
	{"bill_address_line_3", func(b *BillingDetails) *string { return &b.Address[2] }},
	{"bill_address_line_4", func(b *BillingDetails) *string { return &b.Address[3] }},
	{"bill_address_line_5", func(b *BillingDetails) *string { return &b.Address[4] }},
	{"bill_postcode", func(b *BillingDetails) *string { return &b.Postcode }},
	{"bill_country", func(b *BillingDetails) *string { return &b.Country }},
	{"bill_tel", func(b *BillingDetails) *string { return &b.Tel }},
	{"bill_fax", func(b *BillingDetails) *string { return &b.Fax }},
	{"bill_email", func(b *BillingDetails) *string { return &b.Email }},
}

// contactToBilling pairs each billing field with the contact value it is copied from.
var contactToBilling = []struct {
	to   func(*BillingDetails) *string
	from func(ContactDetails) string
}{
	{func(b *BillingDetails) *string { return &b.Contact }, ContactDetails.FullName},
	{func(b *BillingDetails) *string { return &b.Organisation }, func(c ContactDetails) string { return c.Organisation }},
	{func(b *BillingDetails) *string { return &b.JobTitle }, func(c ContactDetails) string { return c.JobTitle }},
	{func(b *BillingDetails) *string { return &b.Address[0] }, func(c ContactDetails) string { return c.Address[0] }},
	{func(b *BillingDetails) *string { return &b.Address[1] }, func(c ContactDetails) string { return c.Address[1] }},
	{func(b *BillingDetails) *string { return &b.Address[2] }, func(c ContactDetails) string { return c.Address[2] }},
	{func(b *BillingDetails) *string { return &b.Address[3] }, func(c ContactDetails) string { return c.Address[3] }},
	{func(b *BillingDetails) *string { return &b.Address[4] }, func(c ContactDetails) string { return c.Address[4] }},
	{func(b *BillingDetails) *string { return &b.Postcode }, func(c ContactDetails) string { return c.Postcode }},
	{func(b *BillingDetails) *string { return &b.Country }, func(c ContactDetails) string { return c.Country }},
	{func(b *BillingDetails) *string { return &b.Tel }, func(c ContactDetails) string { return c.Tel }},
	{func(b *BillingDetails) *string { return &b.Fax }, func(c ContactDetails) string { return c.Fax }},
	{func(b *BillingDetails) *string { return &b.Email }, func(c ContactDetails) string { return c.Email }},
}

// delegateToContact lists the contact fields filled from a sole delegate.
var delegateToContact = []struct {
	to   func(*ContactDetails) *string
	from func(DelegateDetails) string
}{
	{func(c *ContactDetails) *string { return &c.Title }, func(d DelegateDetails) string { return d.Title }},
	{func(c *ContactDetails) *string { return &c.Forename }, func(d DelegateDetails) string { return d.Forename }},
	{func(c *ContactDetails) *string { return &c.Surname }, func(d DelegateDetails) string { return d.Surname }},
	{func(c *ContactDetails) *string { return &c.Email }, func(d DelegateDetails) string { return d.Email }},
	{func(c *ContactDetails) *string { return &c.Tel }, func(d DelegateDetails) string { return d.Tel }},
}

// BillingColumns returns the billing column names in table order.
func BillingColumns() []string {
	cols := make([]string, len(billingFields))
	for i, f := range billingFields {
		cols[i] = f.name
	}
	return cols
}

// BillingValues returns the billing values in BillingColumns order.
func BillingValues(b BillingDetails) []any {
	vals := make([]any, len(billingFields))
	for i, f := range billingFields {
		vals[i] = *f.field(&b)
	}
	return vals
}

// BillingTargets returns scan destinations in BillingColumns order.
func BillingTargets(b *BillingDetails) []any {
	dst := make([]any, len(billingFields))
	for i, f := range billingFields {
		dst[i] = f.field(b)
	}
	return dst
}

// ContactColumns returns the contact column names in table order.
func ContactColumns() []string {
	cols := make([]string, len(contactFields))
	for i, f := range contactFields {
		cols[i] = f.name
	}
	return cols
}

// ContactValues returns the contact values in ContactColumns order.
func ContactValues(c ContactDetails) []any {
	vals := make([]any, len(contactFields))
	for i, f := range contactFields {
		vals[i] = *f.field(&c)
	}
	return vals
}

// ContactTargets returns scan destinations in ContactColumns order.
func ContactTargets(c *ContactDetails) []any {
	dst := make([]any, len(contactFields))
	for i, f := range contactFields {
		dst[i] = f.field(c)
	}
	return dst
}

// ApplyBillingDefaults fills defaults on a booking that has not been persisted yet.
// Free-of-charge carts get placeholder billing details; otherwise a cart with a
// single delegate lends that delegate's details to blank contact fields.
func ApplyBillingDefaults(b *Booking, staged []*CartDelegate, freeOfCharge bool) {
	if !b.IsNew() {
		return
	}
	if freeOfCharge {
		for _, f := range billingFields {
			*f.field(&b.Billing) = BillingPlaceholder
		}
		b.Billing.Email = b.Contact.Email
		return
	}
	if len(staged) == 1 {
		d := staged[0].DelegateDetails
		for _, p := range delegateToContact {
			if dst := p.to(&b.Contact); *dst == "" {
				*dst = p.from(d)
			}
		}
	}
}

// CopyContactToBilling overwrites the billing block from the contact block when
// the booking asks for it.
func CopyContactToBilling(b *Booking) {
	if !b.CopyBillingContact {
		return
	}
	for _, p := range contactToBilling {
		*p.to(&b.Billing) = p.from(b.Contact)
	}
}

// Validate checks a billing block edited on its own, outside a booking save.
func (d BillingDetails) Validate() error {
	if d.Email == "" || emailPattern.MatchString(d.Email) {
		return nil
	}
	verr := &ValidationError{}
	verr.Add("bill_email", "is invalid")
	return verr
}
