package edr

// applyLegacySums converts the cumulative sum/variance an old-style (v1)
// energy file carries in every frame into the per-frame windowed sum and
// variance modern files store directly. It is invoked only for v1 (magic
// > 0) files, and mutates fr.energies in place using and updating ls, the
// per-file persistent state carried between consecutive frames.
func applyLegacySums(fr *frame, ls *legacyState) {
	nstepAll := fr.step - ls.firstStep + 1

	if hasNonzeroValueWithZeroSums(fr.energies) {
		fr.nsum = 0
	}

	nsum := fr.nsum
	switch {
	case nsum > 1 && int64(nsum) == nstepAll && ls.nsumPrev > 0:
		newNsum := fr.step - ls.stepPrev
		fr.nsum = int32(newNsum)

		denom := float64(nstepAll - newNsum)
		for i := range fr.energies {
			prev := ls.prevEnergy[i]
			esumAll := fr.energies[i].esum
			eavAll := fr.energies[i].eav

			newEsum := esumAll - prev.esum
			diff := prev.esum/denom - esumAll/float64(nstepAll)
			newEav := eavAll - prev.eav - diff*diff*denom*float64(nstepAll)/float64(newNsum)

			ls.prevEnergy[i] = prevEnergy{esum: esumAll, eav: eavAll}
			fr.energies[i].esum = newEsum
			fr.energies[i].eav = newEav
		}
		ls.nsumPrev = int32(nstepAll)

	case nsum > 0:
		for i := range fr.energies {
			ls.prevEnergy[i] = prevEnergy{esum: fr.energies[i].esum, eav: fr.energies[i].eav}
		}
		ls.nsumPrev = int32(nstepAll)
	}

	ls.stepPrev = fr.step
}

func hasNonzeroValueWithZeroSums(energies []energy) bool {
	anyNonzeroE := false
	allZeroEsum := true
	for _, e := range energies {
		if e.e != 0 {
			anyNonzeroE = true
		}
		if e.esum != 0 {
			allZeroEsum = false
		}
	}
	return anyNonzeroE && allZeroEsum
}
