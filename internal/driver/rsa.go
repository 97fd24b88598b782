package driver

import (
	"math/big"

	"github.com/rcornwell/bignumsim/internal/simerr"
)

// PubExp is the RSA public exponent used throughout sim_rsa_tests.py
// (EXP_PUB = 65537).
const PubExp = 65537

// RSA_N/RSA_D are the fixed RSA test vectors sim_rsa_tests.py ships at
// 768/1024/2048/3072 bits. They are kept here for documentation fidelity
// with the reference, but none fit the bn_words=1 (<=256-bit) width this
// package's micro-programs hardcode (see DESIGN.md) — RSAEncrypt/
// RSADecrypt below only exercise moduli narrow enough to run through
// RunModExpRaw. Callers wanting the literal 768-bit scenario should read
// these values by hand; the Driver itself rejects them.
var (
	rsaN768, _ = new(big.Int).SetString("B0DBED46D932F07CD42023D2355A8617DB247236333BC2648BA4496E74FEFAD2820CC4123A4867E115CC94DF441B4EC018BA461B512CE20FC03277ED5F8BE5A300E63C2DA7108953A82B337438F73600FDDD5BBD7BC17CE175902B782D398569", 16)
	rsaD768, _ = new(big.Int).SetString("AEADB950258C1B5C9F42D33E7675DF4546AB5BA6CEB972494E66C82431A7F961DB12F2C132117B9023B0B9453F065DA2D7350FDDFC03DF8D916B83F959EE671E1A209E8BF8F6E2B2F529714C2254CF7E97BC7024DD6D52FE17D9D6417B764001", 16)
)

// RSA_N/RSA_D expose the fixed test vectors keyed by bit width, matching
// sim_rsa_tests.py's RSA_N/RSA_D dicts. Only the 768-bit entry is
// populated; it documents the original scenario even though it cannot be
// driven end to end through this package's bn_words=1 micro-programs.
var (
	RSA_N = map[int]*big.Int{768: rsaN768}
	RSA_D = map[int]*big.Int{768: rsaD768}
)

// GetMsgVal encodes msg as a big-endian ASCII bignum, the way
// sim_rsa_tests.py's get_msg_val packs a message string into the value an
// RSA primitive operates on.
func GetMsgVal(msg string) *big.Int {
	out := new(big.Int)
	for _, r := range []byte(msg) {
		out.Lsh(out, 8)
		out.Or(out, big.NewInt(int64(r)))
	}
	return out
}

// GetMsgStr decodes a bignum produced by GetMsgVal back to its ASCII
// string, the inverse of GetMsgVal and of sim_rsa_tests.py's get_msg_str.
func GetMsgStr(val *big.Int) string {
	b := val.Bytes()
	return string(b)
}

// RSAEncrypt runs msg^65537 mod mod through RunModExp65537, matching
// sim_rsa_tests.py's rsa_encrypt. Its load_mod/run_modload steps happen
// inside RunModExpRaw via RunModLoad; the dinv/rr values are used as
// returned, without a check_dinv/check_rr step.
func (d *Driver) RSAEncrypt(mod, msg *big.Int) (enc *big.Int, instCount, cycleCount uint64, err error) {
	if msg.Cmp(mod) >= 0 {
		return nil, 0, 0, simerr.New(simerr.ValueRange, "message %s does not fit under modulus %s", msg, mod)
	}
	return d.RunModExp65537(mod, msg)
}

// RSADecrypt runs enc^privKey mod mod through RunModExpRaw, matching
// sim_rsa_tests.py's rsa_decrypt.
func (d *Driver) RSADecrypt(mod, privKey, enc *big.Int) (msg *big.Int, instCount, cycleCount uint64, err error) {
	return d.RunModExpRaw(mod, enc, privKey)
}
