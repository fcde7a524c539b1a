package rawtx

// Wire-format sizes in bytes.
const (
	AmountValueSize   = 8
	AssetNameSize     = 32
	AssetMetadataSize = 96
	PublicAddressSize = 32
	AssetIDSize       = 32

	// name + owner address + metadata + nonce
	AssetRecordSize = AssetNameSize + PublicAddressSize + AssetMetadataSize + 1

	SpendRecordSize = 388
	ProofSize       = 192

	EncryptedSharedKeySize = 64
	MACSize                = 16
	NoteEncryptionKeySize  = EncryptedSharedKeySize + MACSize

	ScalarSize = 32
	MemoSize   = 32

	// value + randomness + asset id + memo + sender address
	EncryptedNoteSize          = ScalarSize + MemoSize + AmountValueSize + AssetIDSize + PublicAddressSize
	EncryptedNotePlaintextSize = EncryptedNoteSize + MACSize
	EncryptedNoteLength        = NoteEncryptionKeySize + EncryptedNotePlaintextSize + 96

	// OutputRecordSize is NOTE_ENCRYPTED_SERIALIZED_SIZE: proof + encrypted note.
	OutputRecordSize = ProofSize + EncryptedNoteLength

	TransactionSignatureSize  = 64
	TransactionPublicKeySize  = 32
	TransactionExpirationSize = 4
	TransactionFeeSize        = 8

	// HashSize is the length of a note commitment tree node.
	HashSize = 32
)

// DefaultVersion is the transaction version assumed by the unversioned layout.
const DefaultVersion uint8 = 1

// MaxUTXOCount is the largest number of notes a wallet should combine into
// a single transaction.
const MaxUTXOCount = 10

// NativeAssetIDHex identifies the chain's native asset.
const NativeAssetIDHex = "51f33a2f14f92735e562dc658a5639279ddca3d5079a6d1242b2a588a9cbf44c"

var NativeAssetID = mustAssetID(NativeAssetIDHex)
