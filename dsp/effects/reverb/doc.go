// Package reverb implements whole-buffer room reverberation effects.
//
// Included effects:
//   - SimpleReflection: direct sound plus one wall reflection.
//   - Comb: feedback comb filter, echoes decaying by half per pass.
//   - Allpass: Schroeder allpass diffuser.
//   - Schroeder: comb bank followed by two cascaded allpasses.
//   - ImpulseReverb: convolution with a measured stereo room impulse response.
//
// Distances are given in meters and converted to sample delays with
// [delay.FromDistance]. All effects take a complete mono signal and return a
// new buffer; nothing is streamed and no state survives a call.
//
// Comb and Allpass outputs are returned unscaled. SimpleReflection, Schroeder
// and ImpulseReverb peak-normalize their result to [Headroom].
//
// [Apply] dispatches on a [Kind] parsed from the effect identifiers
// "simple", "comb", "allpass", "schroeder" and "rir".
package reverb
