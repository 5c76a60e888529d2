package kernel

// Params bounds the resource limits the kernel enforces while executing a
// transaction (§4.7's limit checks, §8's quantified properties). Grounded
// on the teacher's DefaultConfig/ValidateConfig idiom for node.Config.
type Params struct {
	MaxInputNotes                  int
	MaxOutputNotes                 int
	MaxAssetsPerNote                int
	MaxNoteInputs                  int
	MaxFungibleAmount              uint64
	EstimatedAfterComputeFeeCycles uint64
	VerificationBaseFee            uint32
}

// DefaultParams returns the kernel's out-of-the-box resource limits.
func DefaultParams() Params {
	return Params{
		MaxInputNotes:                   1024,
		MaxOutputNotes:                  1024,
		MaxAssetsPerNote:                256,
		MaxNoteInputs:                   128,
		MaxFungibleAmount:               MaxFungibleAmount,
		EstimatedAfterComputeFeeCycles:  1000,
		VerificationBaseFee:             1,
	}
}

// ValidateParams rejects a Params value with any non-positive or
// internally inconsistent bound.
func ValidateParams(p Params) error {
	if p.MaxInputNotes <= 0 {
		return kerr(ErrInvalidContext, "MaxInputNotes must be positive")
	}
	if p.MaxOutputNotes <= 0 {
		return kerr(ErrInvalidContext, "MaxOutputNotes must be positive")
	}
	if p.MaxAssetsPerNote <= 0 {
		return kerr(ErrInvalidContext, "MaxAssetsPerNote must be positive")
	}
	if p.MaxNoteInputs <= 0 {
		return kerr(ErrInvalidContext, "MaxNoteInputs must be positive")
	}
	if p.MaxFungibleAmount == 0 || p.MaxFungibleAmount > MaxFungibleAmount {
		return kerrf(ErrInvalidContext, "MaxFungibleAmount must be in (0,%d]", MaxFungibleAmount)
	}
	if p.VerificationBaseFee == 0 {
		return kerr(ErrInvalidContext, "VerificationBaseFee must be positive")
	}
	return nil
}

// Config is the top-level kernel configuration.
type Config struct {
	Params Params
}

// DefaultConfig returns the kernel's out-of-the-box configuration.
func DefaultConfig() Config {
	return Config{Params: DefaultParams()}
}
