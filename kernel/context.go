package kernel

// ContextFlag is a bit in the current call context (§4.8). Procedures
// declare which flags must be present for them to be callable; the kernel
// checks this on every privileged operation.
type ContextFlag uint16

const (
	CtxAny ContextFlag = 1 << iota
	CtxAccount
	CtxNative
	CtxAuth
	CtxNote
	CtxFaucet
)

// ProcedureTags is the set of context flags a procedure requires. CtxAny
// is a wildcard: a procedure tagged with it is callable from any context.
type ProcedureTags ContextFlag

// Allowed reports whether current satisfies the required tags.
func (required ProcedureTags) Allowed(current ContextFlag) bool {
	if ContextFlag(required)&CtxAny != 0 {
		return true
	}
	return current&ContextFlag(required) == ContextFlag(required)
}

// TxContext carries the transaction-wide state threaded through the
// prologue/note-loop/script/epilogue lifecycle (§5): the current call
// context, the native and (if any) foreign account, note iteration state,
// output notes under construction, and the was-called ledger backing
// procedure-level access control (§4.8).
type TxContext struct {
	current ContextFlag

	nativeAccount  *Account
	foreignAccount *Account
	usingForeign   bool

	inputNotes       []*InputNote
	hasCurrentNote   bool
	currentNoteIndex int

	outputNotes          []*OutputNote
	expirationBlockDelta uint32

	authCalled bool
	wasCalled  map[string]bool

	params Params
	api    *AccountAPI
}

// API returns the privileged operation surface bound to this context.
// Scripts reach it through ctx rather than as a separate parameter, since
// both note and transaction scripts share the single Script signature.
func (c *TxContext) API() *AccountAPI { return c.api }

// NewTxContext returns a context for running a transaction against account,
// consuming inputNotes.
func NewTxContext(account *Account, inputNotes []*InputNote, params Params) *TxContext {
	return &TxContext{
		nativeAccount:    account,
		inputNotes:       inputNotes,
		currentNoteIndex: -1,
		wasCalled:        make(map[string]bool),
		params:           params,
	}
}

// Enter replaces the current context flags, returning a function that
// restores the previous value.
func (c *TxContext) Enter(flag ContextFlag) func() {
	prev := c.current
	c.current = flag
	return func() { c.current = prev }
}

// elevateToAccount models "calling an account procedure enters Account
// context" (§4.8): it ORs in CtxAccount, and CtxFaucet if the account
// currently being operated on is a faucet, on top of whatever context the
// caller (native script or note script) was already running in.
func (c *TxContext) elevateToAccount() func() {
	prev := c.current
	next := prev | CtxAccount
	if c.CurrentAccount().ID.IsFaucet() {
		next |= CtxFaucet
	}
	c.current = next
	return func() { c.current = prev }
}

// RequireContext fails unless the current context satisfies tags.
func (c *TxContext) RequireContext(tags ProcedureTags) error {
	if !tags.Allowed(c.current) {
		return kerrf(ErrInvalidContext, "procedure requires context %#x, have %#x", ContextFlag(tags), c.current)
	}
	return nil
}

// CurrentAccount returns the account currently in scope: the foreign
// account if one has been entered via StartForeignContext, otherwise the
// native account.
func (c *TxContext) CurrentAccount() *Account {
	if c.usingForeign {
		return c.foreignAccount
	}
	return c.nativeAccount
}

// NativeAccount always returns the transaction's own account, regardless
// of any foreign context currently entered.
func (c *TxContext) NativeAccount() *Account { return c.nativeAccount }

// StartForeignContext switches the current account in scope to acc,
// returning a function that restores the previous scope (§5's scoped
// resource acquisition). Mutating operations refuse to run while a foreign
// account is in scope (see ops.go): this engine tracks a delta for the
// native account only, so cross-account mutation within one proof is out
// of scope (see DESIGN.md).
func (c *TxContext) StartForeignContext(acc *Account) func() {
	prevAccount, prevUsing := c.foreignAccount, c.usingForeign
	c.foreignAccount = acc
	c.usingForeign = true
	return func() {
		c.foreignAccount = prevAccount
		c.usingForeign = prevUsing
	}
}

// CurrentNote returns the input note presently executing its script, or
// nil outside the note loop.
func (c *TxContext) CurrentNote() *InputNote {
	if !c.hasCurrentNote {
		return nil
	}
	return c.inputNotes[c.currentNoteIndex]
}

// InputNoteAt returns input note i.
func (c *TxContext) InputNoteAt(i int) (*InputNote, error) {
	if i < 0 || i >= len(c.inputNotes) {
		return nil, kerrf(ErrInvalidContext, "input note index %d out of range", i)
	}
	return c.inputNotes[i], nil
}

// InputNoteCount returns the number of input notes in this transaction.
func (c *TxContext) InputNoteCount() int { return len(c.inputNotes) }

// OutputNotes returns the notes created so far, in creation order.
func (c *TxContext) OutputNotes() []*OutputNote { return c.outputNotes }

// markCalled is reached only through AuthenticateAndTrackProcedure (ops.go),
// the one kernel entry point that records a procedure as having run this
// transaction; AssertAuthProcedure only reads that record. Every
// access-control list built on top of was-called tracking must funnel
// through these two (§4.8).
func (c *TxContext) markCalled(procID string) {
	c.wasCalled[procID] = true
}

// WasCalled reports whether procID has been recorded as called so far this
// transaction.
func (c *TxContext) WasCalled(procID string) bool { return c.wasCalled[procID] }
