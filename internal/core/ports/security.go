package ports

// SecurityPort defines the interface for encrypting and decrypting
// sensitive columns (customer phone numbers) before they reach the
// relational store. Keeping it behind a port means the cipher can be
// swapped without touching repository logic.
type SecurityPort interface {
	// Encrypt takes a plaintext and returns a secure, encrypted ciphertext.
	Encrypt(plaintext []byte) (ciphertext []byte, err error)

	// Decrypt takes a ciphertext and returns the original plaintext.
	Decrypt(ciphertext []byte) (plaintext []byte, err error)
}
