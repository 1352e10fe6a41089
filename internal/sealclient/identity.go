package sealclient

import "github.com/seal-ibe/seal-go/pkg/curve"

// dst is the domain-separation label mixed into every full identity before
// hashing to G1, per the wire contract with the on-chain verifier.
const dst = "SUI-SEAL-IBE-BLS12381-00"

// dstPoP is the domain-separation label for the proof-of-possession
// signature a key server publishes over its own identity and public key.
const dstPoP = "SUI-SEAL-IBE-BLS12381-POP-00"

// CreateFullID builds the canonical identity bytes used as the IBE
// identity and the domain for hash-to-curve: len(DST):u8 || DST ||
// packageId(32) || innerId(var). The leading length byte is part of the
// contract.
func CreateFullID(packageID [32]byte, innerID []byte) []byte {
	out := make([]byte, 0, 1+len(dst)+32+len(innerID))
	out = append(out, byte(len(dst)))
	out = append(out, dst...)
	out = append(out, packageID[:]...)
	out = append(out, innerID...)
	return out
}

// VerifyProofOfPossession checks a key server's short signature over its
// own identity and public key: msg = DST_POP || serverPk(curve.G2Len()) ||
// serverObjectId(32), signature is a curve.G1Len()-byte G1 point satisfying
// the same pairing equation as a user secret key extraction of msg.
func VerifyProofOfPossession(serverPK curve.G2, serverObjectID [32]byte, pop []byte) bool {
	g1, err := curve.G1FromBytes(pop)
	if err != nil {
		return false
	}
	msg := make([]byte, 0, len(dstPoP)+curve.G2Len()+32)
	msg = append(msg, dstPoP...)
	msg = append(msg, serverPK.ToBytes()...)
	msg = append(msg, serverObjectID[:]...)
	lhs := curve.Pair(g1, curve.G2Generator())
	rhs := curve.Pair(curve.HashToG1(msg), serverPK)
	return lhs.Equal(rhs)
}
