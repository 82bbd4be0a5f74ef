// Package secrets implements the machine vault: one age X25519 identity per
// machine, persisted as text in the data directory, and authenticated
// encryption of secret files to a recipient.
//
// Plaintext never enters the repository. Ciphertext is stored under secrets/
// with an .age suffix and decrypted only at reconciliation time.
package secrets
