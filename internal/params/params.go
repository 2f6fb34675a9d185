package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// KeyBytes is the length of the symmetric key released by the PPSS layer.
	KeyBytes = 16
	// SeedBytes is the length of the secret seed a server derives per-client keys from.
	SeedBytes = SecBytes
	// SaltBytes is the length of the optional Schnorr domain separation salt.
	SaltBytes = SecBytes

	// PincodeLength is the number of decimal digits in a vault pincode.
	PincodeLength = 6

	// HashToCurveDST separates password hashing in the vault from any other use of the same suite.
	HashToCurveDST = "BEDROCK-VAULT-V01-CS01-with-secp256k1_XMD:SHA-256_SSWU_RO_"
)
