// Package preprocess runs the camera pipeline that turns a photo of a card or
// print into a cropped image of just that object.
//
// # Pipeline
//
//  1. Scale to a thumbnail whose longest side is half the target view size
//  2. Photo noir grayscale
//  3. Gaussian blur
//  4. Detect candidate quadrilaterals on the processed thumbnail
//  5. Pick the best one with geometry.SelectBest
//  6. Crop the colour thumbnail to the winner's bounding box
//  7. Optionally perspective-correct the crop (Options.ApplyCorrection)
//  8. Optionally recognise text in the output (Options.RecognizeText)
//
// Detection runs on the processed image but the crop is taken from the colour
// thumbnail, so the output keeps its colour.
//
// # Perspective correction
//
// Unskew historically returned its input untouched. That stays the default;
// set Options.ApplyCorrection to get an upright, perspective-corrected crop.
package preprocess
