package llm

// analysisPrompt is sent alongside every photo.
const analysisPrompt = `
Analyze this image for jet aircraft and classify by type. Look for:
- Fighter jets (military, combat, etc.)
- Commercial airliners (Airbus, Boeing, etc.)
- Helicopters
- Drones (UAVs, quadcopters, etc.)
- Cargo aircraft

For each jet found, provide:
1. Jet type (one of: fighter-jet, commercial-airliner, helicopter, drone, cargo-aircraft)
2. Confidence level (0.0 to 1.0)
3. Brief description of the specific jet

Return response in JSON format:
{
  "jets": [
    {
      "jetType": "jet_type_name",
      "confidence": 0.85,
      "description": "Brief description of the jet"
    }
  ]
}

If no jets are found, return: {"jets": []}
`

const pingPrompt = `Hello, please respond with "OK" if you can see this message.`
